package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const submissionTTL = time.Hour

// SubmissionGuard admits each form nonce once across all instances.
// Key format: inventory:form:<nonce>
type SubmissionGuard struct {
	client *redis.Client
}

func NewSubmissionGuard(client *redis.Client) *SubmissionGuard {
	return &SubmissionGuard{client: client}
}

// Claim marks nonce as used and reports whether this call was the first.
func (g *SubmissionGuard) Claim(ctx context.Context, nonce string) (bool, error) {
	ok, err := g.client.SetNX(ctx, "inventory:form:"+nonce, "1", submissionTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim submission: %w", err)
	}
	return ok, nil
}
