package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageService_HelloDeliveredOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	th, _ := f.acceptedThread(t)

	sub, err := f.messages.Subscribe(ctx, th.ID, "vendor")
	require.NoError(t, err)
	defer sub.Close()

	sent, err := f.messages.Append(ctx, th.ID, "customer", "Hello")
	require.NoError(t, err)

	select {
	case got := <-sub.C:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, "Hello", got.Content)
		assert.Equal(t, "customer", got.SenderUID)
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}
	select {
	case extra := <-sub.C:
		t.Fatalf("duplicate delivery %+v", extra)
	default:
	}

	list, err := f.messages.List(ctx, th.ID, "vendor", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Hello", list[0].Content)
	assert.EqualValues(t, 1, list[0].Seq)
	assert.False(t, list[0].CreatedAt.IsZero())
}

func TestMessageService_AccessControl(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	th, _ := f.acceptedThread(t)

	_, err := f.messages.Append(ctx, th.ID, "stranger", "hi")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.messages.List(ctx, th.ID, "stranger", 0, 0)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.messages.Subscribe(ctx, th.ID, "stranger")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, f.hub.Subscribers(th.ID))

	_, err = f.messages.Append(ctx, "missing", "customer", "hi")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMessageService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	th, _ := f.acceptedThread(t)

	for _, content := range []string{"", "   \n\t", strings.Repeat("a", model.MaxMessageLen+1)} {
		_, err := f.messages.Append(ctx, th.ID, "customer", content)
		assert.ErrorIs(t, err, ErrValidation)
	}
	list, err := f.messages.List(ctx, th.ID, "customer", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMessageService_SendToQuoteCreatesThreadLazily(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	post := f.post(t, "customer")
	q := f.quote(t, post, "vendor")

	msg, th, err := f.messages.SendToQuote(ctx, q.ID, "vendor", "Any questions?")
	require.NoError(t, err)
	assert.Equal(t, th.ID, msg.ThreadID)
	assert.Equal(t, q.ID, th.QuoteID)

	_, th2, err := f.messages.SendToQuote(ctx, q.ID, "customer", "Yes, one")
	require.NoError(t, err)
	assert.Equal(t, th.ID, th2.ID)

	_, _, err = f.messages.SendToQuote(ctx, q.ID, "stranger", "hi")
	assert.ErrorIs(t, err, ErrForbidden)
	_, _, err = f.messages.SendToQuote(ctx, q.ID, "vendor", " ")
	assert.ErrorIs(t, err, ErrValidation)

	notes, _, err := f.notices.List(ctx, "customer", true, 0)
	require.NoError(t, err)
	var newMessage int
	for _, n := range notes {
		if n.Type == model.NotificationNewMessage {
			newMessage++
		}
	}
	assert.Equal(t, 1, newMessage)

	_, err = f.messages.List(ctx, th.ID, "customer", 0, 0)
	require.NoError(t, err)
	notes, _, err = f.notices.List(ctx, "customer", true, 0)
	require.NoError(t, err)
	for _, n := range notes {
		assert.NotEqual(t, model.NotificationNewMessage, n.Type, "listing marks thread notifications read")
	}
}

func TestMessageService_LiveOrderMatchesStoredOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	th, _ := f.acceptedThread(t)

	sub, err := f.messages.Subscribe(ctx, th.ID, "customer")
	require.NoError(t, err)
	defer sub.Close()

	const writers = 12
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := []string{"customer", "vendor"}[i%2]
			_, err := f.messages.Append(ctx, th.ID, sender, fmt.Sprintf("msg-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for want := int64(1); want <= writers; want++ {
		select {
		case m := <-sub.C:
			assert.Equal(t, want, m.Seq)
		case <-time.After(time.Second):
			t.Fatalf("missing live message %d", want)
		}
	}

	stored, err := f.messages.List(ctx, th.ID, "vendor", 0, 0)
	require.NoError(t, err)
	require.Len(t, stored, writers)
	for i := 1; i < len(stored); i++ {
		assert.Greater(t, stored[i].Seq, stored[i-1].Seq)
		assert.False(t, stored[i].CreatedAt.Before(stored[i-1].CreatedAt))
	}

	tail, err := f.messages.List(ctx, th.ID, "vendor", writers-2, 0)
	require.NoError(t, err)
	assert.Len(t, tail, 2)
}

func TestMessageService_ClockSkewKeepsTimestampsMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	th, _ := f.acceptedThread(t)

	svc := f.messages.(*messageService)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base.Add(-time.Hour), base.Add(time.Minute)}
	for i, now := range clock {
		now := now
		svc.now = func() time.Time { return now }
		_, err := f.messages.Append(ctx, th.ID, "vendor", fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	list, err := f.messages.List(ctx, th.ID, "customer", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[1].CreatedAt.Equal(base))
	assert.True(t, list[2].CreatedAt.Equal(base.Add(time.Minute)))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))
	long := strings.Repeat("界", previewLen+5)
	got := preview(long)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, previewLen+1, len([]rune(got)))
}
