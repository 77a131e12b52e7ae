//go:build integration

package alerts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/hugoalbmartins/Leiritrix-sub000/alerts"
	"github.com/hugoalbmartins/Leiritrix-sub000/testutil/containers"
)

type RedisLogSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	log   *alerts.RedisLog
}

func TestRedisLogSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLogSuite))
}

func (s *RedisLogSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.log = alerts.NewRedisLog(s.redis.Client)
}

func (s *RedisLogSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLogSuite) TestRecordThenSeen() {
	ctx := context.Background()
	key := alerts.Key{
		UserID:      "u1",
		Type:        alerts.TypeLead,
		ReferenceID: "l1-2025-06-10",
		Day:         alerts.NewDay(2025, time.June, 10),
	}

	sent, err := s.log.WasSent(ctx, key)
	s.Require().NoError(err)
	s.False(sent)

	s.Require().NoError(s.log.RecordSent(ctx, key))

	sent, err = s.log.WasSent(ctx, key)
	s.Require().NoError(err)
	s.True(sent)

	other := key
	other.UserID = "u2"
	sent, err = s.log.WasSent(ctx, other)
	s.Require().NoError(err)
	s.False(sent, "keys are per user")
}

func (s *RedisLogSuite) TestKeysExpire() {
	ctx := context.Background()
	key := alerts.Key{UserID: "u1", Type: alerts.TypeLoyalty, ReferenceID: "s1", Day: alerts.NewDay(2025, time.June, 10)}
	s.Require().NoError(s.log.RecordSent(ctx, key))

	keys, err := s.redis.Client.Keys(ctx, "alerts:sent:*").Result()
	s.Require().NoError(err)
	s.Require().Len(keys, 1)

	ttl, err := s.redis.Client.TTL(ctx, keys[0]).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 24*time.Hour)
}
