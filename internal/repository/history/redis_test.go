package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/catalogchat/internal/db"
	dbredis "github.com/kailas-cloud/catalogchat/internal/db/redis"
	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAppend_PushesAndRefreshesTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("RPUSH", "cc:history:s1",
				`{"role":"user","content":"hola","createdAt":"2026-03-01T12:00:00Z"}`)).
			Return(mock.Result(mock.RedisInt64(1))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("EXPIRE", "cc:history:s1", "3600")).
			Return(mock.Result(mock.RedisInt64(1))),
	)

	h := NewRedis(dbredis.NewStoreForTest(c), "cc:", time.Hour)
	err := h.Append(context.Background(), "s1", conversation.Message{
		Role: conversation.RoleUser, Content: "hola", CreatedAt: t0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppend_NoTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "RPUSH" && cmd[1] == "cc:history:s1"
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	h := NewRedis(dbredis.NewStoreForTest(c), "cc:", 0)
	if err := h.Append(context.Background(), "s1", conversation.Message{Role: "user", Content: "x", CreatedAt: t0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppend_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(errors.New("READONLY")))

	h := NewRedis(dbredis.NewStoreForTest(c), "cc:", time.Hour)
	err := h.Append(context.Background(), "s1", conversation.Message{Role: "user", Content: "x", CreatedAt: t0})

	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpRPush {
		t.Fatalf("expected db.Error with op RPUSH, got %v", err)
	}
}

func TestList_OrdersByCreationTime(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("LRANGE", "cc:history:s1", "0", "-1")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisBlobString(`{"role":"assistant","content":"b","createdAt":"2026-03-01T12:00:01Z"}`),
			mock.RedisBlobString(`not json`),
			mock.RedisBlobString(`{"role":"user","content":"a","createdAt":"2026-03-01T12:00:00Z"}`),
			mock.RedisBlobString(`{"role":"user","content":"c","createdAt":"2026-03-01T12:00:01Z"}`),
		)))

	h := NewRedis(dbredis.NewStoreForTest(c), "cc:", 0)
	got, err := h.List(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got))
	}
	for i, content := range want {
		if got[i].Content != content {
			t.Errorf("message %d = %q, expected %q", i, got[i].Content, content)
		}
	}
}

func TestList_UnknownSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("LRANGE", "cc:history:nope", "0", "-1")).
		Return(mock.Result(mock.RedisArray()))

	got, err := NewRedis(dbredis.NewStoreForTest(c), "cc:", 0).List(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty history, got %v", got)
	}
}
