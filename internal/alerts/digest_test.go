package alerts

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	alerts []models.Alert
	err    error
}

func (s *staticSource) Pending(context.Context) ([]models.Alert, int, error) {
	out := append([]models.Alert(nil), s.alerts...)
	return out, len(out), s.err
}

func (s *staticSource) Ack(_ context.Context, n int) error {
	s.alerts = s.alerts[n:]
	return nil
}

type captureMailer struct {
	subject string
	body    string
	err     error
}

func (m *captureMailer) Send(_ context.Context, subject, body string) error {
	m.subject, m.body = subject, body
	return m.err
}

func sampleAlerts() []models.Alert {
	one, two := 1, 2
	base := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	return []models.Alert{
		{Message: "Low stock for Pens. Current stock: 4, minimum: 5", ProductID: &one, CreatedAt: base},
		{Message: "Low stock for Pens. Current stock: 3, minimum: 5", ProductID: &one, CreatedAt: base.Add(time.Hour)},
		{Message: "Low stock for <Glue>. Current stock: 0, minimum: 1", ProductID: &two, CreatedAt: base.Add(2 * time.Hour)},
	}
}

func TestRenderDigest(t *testing.T) {
	body := RenderDigest(sampleAlerts(), time.Date(2025, 5, 4, 23, 59, 0, 0, time.UTC))

	assert.Contains(t, body, "Low stock digest for 2025-05-04")
	assert.Contains(t, body, "Total alerts: <strong>3</strong>")
	assert.Contains(t, body, "<b>#1</b>: 2 alert(s), latest: Low stock for Pens. Current stock: 3, minimum: 5")
	assert.Contains(t, body, "&lt;Glue&gt;")
	assert.NotContains(t, body, "<Glue>")
	assert.Less(t, strings.Index(body, "#1"), strings.Index(body, "#2"), "busiest product first")
}

func TestSendDigest(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	src := &staticSource{alerts: sampleAlerts()}
	mailer := &captureMailer{}
	n, err := SendDigest(ctx, src, mailer, now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "Daily low stock report (3 alerts)", mailer.subject)
	assert.NotEmpty(t, mailer.body)

	mailer = &captureMailer{}
	n, err = SendDigest(ctx, src, mailer, now)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, mailer.subject, "nothing is mailed for an empty day")

	n, err = SendDigest(ctx, &staticSource{alerts: sampleAlerts()}, nil, now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = SendDigest(ctx, &staticSource{alerts: sampleAlerts(), err: errors.New("redis down")}, mailer, now)
	assert.ErrorContains(t, err, "redis down")
}

func TestSendDigest_FailedSendKeepsAlertsQueued(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	src := &staticSource{alerts: sampleAlerts()}

	_, err := SendDigest(ctx, src, &captureMailer{err: errors.New("smtp down")}, now)
	require.ErrorContains(t, err, "smtp down")
	assert.Len(t, src.alerts, 3)

	mailer := &captureMailer{}
	n, err := SendDigest(ctx, src, mailer, now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "Daily low stock report (3 alerts)", mailer.subject)
	assert.Empty(t, src.alerts)
}

func TestNextDigest(t *testing.T) {
	before := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 5, 4, 23, 59, 0, 0, time.UTC), nextDigest(before, 23, 59))

	exact := time.Date(2025, 5, 4, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 5, 5, 23, 59, 0, 0, time.UTC), nextDigest(exact, 23, 59))
}

func TestDecodeAlerts_SkipsMalformed(t *testing.T) {
	alerts := decodeAlerts([]string{`{"message":"ok","kind":"low_stock"}`, `not json`})
	require.Len(t, alerts, 1)
	assert.Equal(t, "ok", alerts[0].Message)
}

func TestRedisFeed(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })

	feed := NewRedisFeed(rdb)
	feed.key = "test:" + DailyAlertKey + ":" + t.Name()
	require.NoError(t, feed.Ping(ctx))
	t.Cleanup(func() { rdb.Del(ctx, feed.key) })

	for _, a := range sampleAlerts() {
		require.NoError(t, feed.Publish(ctx, a))
	}

	pending, read, err := feed.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
	assert.Equal(t, 3, read)

	late := models.Alert{Message: "Low stock for Tape. Current stock: 0, minimum: 1"}
	require.NoError(t, feed.Publish(ctx, late))
	require.NoError(t, feed.Ack(ctx, read))

	pending, read, err = feed.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, read)
	require.Len(t, pending, 1)
	assert.Equal(t, late.Message, pending[0].Message)

	_, err = SendDigest(ctx, feed, &captureMailer{err: errors.New("smtp down")}, time.Now())
	require.Error(t, err)
	_, read, err = feed.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, read, "a failed send keeps the queue")
}
