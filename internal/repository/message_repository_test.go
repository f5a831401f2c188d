package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shinyyama/bidboard-backend/internal/db/dbtest"
	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedThread(t *testing.T, db *gorm.DB) *model.ChatThread {
	t.Helper()
	post := seedPost(t, db, "customer")
	q := seedQuote(t, db, post, "vendor")
	th, err := NewThreadRepository(db).GetOrCreate(context.Background(), model.NewChatThread(q))
	require.NoError(t, err)
	return th
}

func TestMessageRepository_AppendAssignsSeqAndClampsTime(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := NewMessageRepository(db)
	th := seedThread(t, db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// the second clock reading goes backwards
	clock := []time.Time{base, base.Add(-time.Minute), base.Add(time.Second)}
	for i, now := range clock {
		msg, err := model.NewMessage(th.ID, "customer", fmt.Sprintf("m%d", i))
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, msg, now))
		assert.EqualValues(t, i+1, msg.Seq)
	}

	msgs, err := repo.List(ctx, th.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.True(t, msgs[1].CreatedAt.Equal(base), "clock skew is clamped to the previous message")
	for i := 1; i < len(msgs); i++ {
		assert.Greater(t, msgs[i].Seq, msgs[i-1].Seq)
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
	}

	stored, err := NewThreadRepository(db).FindByID(ctx, th.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stored.NextSeq)
	require.NotNil(t, stored.LastMessageAt)
	assert.True(t, stored.LastMessageAt.Equal(base.Add(time.Second)))
}

func TestMessageRepository_AppendUnknownThread(t *testing.T) {
	db := dbtest.Open(t)
	msg, err := model.NewMessage("nope", "customer", "hello")
	require.NoError(t, err)
	assert.ErrorIs(t, NewMessageRepository(db).Append(context.Background(), msg, time.Now()), gorm.ErrRecordNotFound)
}

func TestMessageRepository_ConcurrentAppendIsGapFree(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := NewMessageRepository(db)
	th := seedThread(t, db)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := "customer"
			if i%2 == 1 {
				sender = "vendor"
			}
			msg, err := model.NewMessage(th.ID, sender, fmt.Sprintf("msg %d", i))
			if assert.NoError(t, err) {
				assert.NoError(t, repo.Append(ctx, msg, time.Now().UTC()))
			}
		}(i)
	}
	wg.Wait()

	msgs, err := repo.List(ctx, th.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, writers)
	for i, m := range msgs {
		assert.EqualValues(t, i+1, m.Seq)
		if i > 0 {
			assert.False(t, m.CreatedAt.Before(msgs[i-1].CreatedAt))
		}
	}
}

func TestMessageRepository_ListAfterSeq(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := NewMessageRepository(db)
	th := seedThread(t, db)
	for i := 0; i < 5; i++ {
		msg, err := model.NewMessage(th.ID, "vendor", fmt.Sprintf("m%d", i))
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, msg, time.Now().UTC()))
	}

	tail, err := repo.List(ctx, th.ID, 3, 0)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.EqualValues(t, 4, tail[0].Seq)

	limited, err := repo.List(ctx, th.ID, 0, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
