package notifications

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/internal/api/apitest"
	dErrors "coursehub/pkg/domain-errors"
)

func TestList(t *testing.T) {
	caller := apitest.NewCaller().Reply(http.MethodGet, basePath,
		`{"items":[{"id":1,"title":"Enrolled","type":"course","is_read":false,"link":"/courses/my"},{"id":2,"title":"Maintenance","type":"system","is_read":true}],"total":2,"unread_count":1}`)
	read := true

	list, err := New(caller).List(context.Background(), Filter{Type: TypeCourse, IsRead: &read})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 1, list.UnreadCount)
	assert.Equal(t, "/courses/my", list.Items[0].Link)
	assert.Equal(t, TypeCourse, caller.Last().Query.Get("type"))
	assert.Equal(t, "true", caller.Last().Query.Get("is_read"))
}

func TestMutations(t *testing.T) {
	caller := apitest.NewCaller().
		Reply(http.MethodPut, basePath+"/3/read", `{"code":200}`).
		Reply(http.MethodPut, basePath+"/read-all", ``).
		Reply(http.MethodDelete, basePath+"/3", ``).
		Reply(http.MethodDelete, basePath+"/clear", ``)
	client := New(caller)
	ctx := context.Background()

	require.NoError(t, client.MarkRead(ctx, 3))
	require.NoError(t, client.MarkAllRead(ctx))
	require.NoError(t, client.Delete(ctx, 3))
	require.NoError(t, client.Clear(ctx))
	assert.Len(t, caller.Requests(), 4)

	err := client.MarkRead(ctx, 0)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	assert.Len(t, caller.Requests(), 4)
}

func TestUnreadCountAcceptsCountKey(t *testing.T) {
	caller := apitest.NewCaller().Reply(http.MethodGet, basePath+"/unread/count", `{"count":3}`)
	n, err := New(caller).UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
