// Package notify announces record workflow events to downstream reviewers.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pitchscore/internal/model"
)

// EventPublishRequested is the event type attribute on publish requests.
const EventPublishRequested = "publish_requested"

// Notifier is told when a founder asks for a record to be reviewed.
type Notifier interface {
	PublishRequested(ctx context.Context, r model.Record) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) PublishRequested(context.Context, model.Record) error { return nil }

// Publisher is the slice of the SNS client the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes JSON events to an SNS topic.
type SNSNotifier struct {
	client   Publisher
	topicARN string
}

// NewSNSNotifier wraps an existing publisher.
func NewSNSNotifier(client Publisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

// NewSNSNotifierFromEnv loads AWS credentials from the default chain.
func NewSNSNotifierFromEnv(ctx context.Context, region, topicARN string) (*SNSNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, eris.Wrap(err, "notify: load aws config")
	}
	return NewSNSNotifier(sns.NewFromConfig(cfg), topicARN), nil
}

// publishEvent is the message body sent for a publish request.
type publishEvent struct {
	Event       string     `json:"event"`
	RecordID    string     `json:"record_id"`
	CompanyName string     `json:"company_name"`
	Title       string     `json:"title"`
	AIScore     *int       `json:"ai_score"`
	Status      string     `json:"status"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

func (n *SNSNotifier) PublishRequested(ctx context.Context, r model.Record) error {
	body, err := json.Marshal(publishEvent{
		Event:       EventPublishRequested,
		RecordID:    r.ID,
		CompanyName: r.CompanyName,
		Title:       r.Title,
		AIScore:     r.AIScore,
		Status:      string(r.Status),
		SubmittedAt: r.SubmittedAt,
	})
	if err != nil {
		return eris.Wrap(err, "notify: encode event")
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("Publish requested: " + subject(r)),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {DataType: aws.String("String"), StringValue: aws.String(EventPublishRequested)},
		},
	})
	if err != nil {
		return eris.Wrapf(err, "notify: sns publish %s", r.ID)
	}
	return nil
}

// subject keeps SNS subjects within their 100 character limit.
func subject(r model.Record) string {
	s := r.CompanyName
	if s == "" {
		s = r.Title
	}
	if s == "" {
		s = r.ID
	}
	runes := []rune(s)
	if len(runes) > 80 {
		s = string(runes[:80])
	}
	return s
}
