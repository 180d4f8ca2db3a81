package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ustudiopd/eventlive/pkg/survey"
)

// MongoConfig configures the MongoDB source.
type MongoConfig struct {
	URI      string
	Database string
	// Timeout bounds the initial connect and ping.
	Timeout time.Duration
}

// MongoSource reads campaigns from the event platform's MongoDB.
//
// Collections: campaigns (_id = campaign id), form_questions, form_submissions
// and form_answers, each keyed by campaign_id.
type MongoSource struct {
	client      *mongo.Client
	campaigns   *mongo.Collection
	questions   *mongo.Collection
	submissions *mongo.Collection
	answers     *mongo.Collection
	logger      *slog.Logger
}

type campaignDoc struct {
	ID           string `bson:"_id"`
	FormID       string `bson:"form_id"`
	FormRevision string `bson:"form_revision"`
	Title        string `bson:"title"`
}

type questionDoc struct {
	ID           string `bson:"question_id"`
	OrderNo      int    `bson:"order_no"`
	Body         string `bson:"body"`
	Type         string `bson:"type"`
	Options      any    `bson:"options,omitempty"`
	RoleOverride string `bson:"role_override,omitempty"`
}

type submissionDoc struct {
	ID          string    `bson:"submission_id"`
	SubmittedAt time.Time `bson:"submitted_at"`
}

// NewMongoSource connects and pings the server.
func NewMongoSource(ctx context.Context, cfg MongoConfig, logger *slog.Logger) (*MongoSource, error) {
	if cfg.URI == "" {
		return nil, newStorageError("mongo", "connect", errors.New("uri is required"))
	}
	if cfg.Database == "" {
		cfg.Database = "eventlive"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, newStorageError("mongo", "connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, newStorageError("mongo", "ping", err)
	}

	db := client.Database(cfg.Database)
	return &MongoSource{
		client:      client,
		campaigns:   db.Collection("campaigns"),
		questions:   db.Collection("form_questions"),
		submissions: db.Collection("form_submissions"),
		answers:     db.Collection("form_answers"),
		logger:      logger.With("component", "store.campaign.mongo"),
	}, nil
}

// Load implements Source.
func (s *MongoSource) Load(ctx context.Context, campaignID string) (*survey.CampaignData, error) {
	var c campaignDoc
	err := s.campaigns.FindOne(ctx, bson.M{"_id": campaignID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, newStorageError("mongo", "load_campaign", err)
	}

	data := &survey.CampaignData{
		CampaignID:   campaignID,
		FormID:       c.FormID,
		FormRevision: c.FormRevision,
		Title:        c.Title,
	}
	filter := bson.M{"campaign_id": campaignID}

	var qdocs []questionDoc
	if err := s.findAll(ctx, s.questions, filter, &qdocs); err != nil {
		return nil, newStorageError("mongo", "load_questions", err)
	}
	raws := make([]survey.RawQuestion, len(qdocs))
	for i, d := range qdocs {
		raws[i] = survey.RawQuestion{
			ID:           d.ID,
			OrderNo:      d.OrderNo,
			Body:         d.Body,
			Type:         d.Type,
			Options:      plainValue(d.Options),
			RoleOverride: d.RoleOverride,
		}
	}
	if data.Questions, err = survey.ParseQuestions(raws); err != nil {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, err)
	}

	var sdocs []submissionDoc
	if err := s.findAll(ctx, s.submissions, filter, &sdocs); err != nil {
		return nil, newStorageError("mongo", "load_submissions", err)
	}
	for _, d := range sdocs {
		data.Submissions = append(data.Submissions, survey.Submission{ID: d.ID, SubmittedAt: d.SubmittedAt.UTC()})
	}

	if err := s.findAll(ctx, s.answers, filter, &data.Answers); err != nil {
		return nil, newStorageError("mongo", "load_answers", err)
	}

	sortSnapshot(data)
	s.logger.Debug("campaign loaded",
		"campaign_id", campaignID,
		"questions", len(data.Questions),
		"submissions", len(data.Submissions),
		"answers", len(data.Answers),
	)
	return data, nil
}

func (s *MongoSource) findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, out any) error {
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// Close implements Source.
func (s *MongoSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// plainValue converts decoded BSON containers into the []any and
// map[string]any shapes survey.NormalizeOptions accepts.
func plainValue(v any) any {
	switch t := v.(type) {
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}
