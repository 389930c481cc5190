package internal

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background())
	id := GetRequestID(ctx)

	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, GetRequestID(WithRequestID(ctx)))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestRequestContext(t *testing.T) {
	request := httptest.NewRequest("GET", "/payment/ipn", nil)
	request.Header.Set("X-Request-ID", "7d444840-9dc0-11d1-b245-5ffdce74fad2")
	assert.Equal(t, "7d444840-9dc0-11d1-b245-5ffdce74fad2", GetRequestID(RequestContext(request)))

	request.Header.Set("X-Request-ID", "not a uuid\n")
	id := GetRequestID(RequestContext(request))
	assert.NotEqual(t, "not a uuid\n", id)
	assert.NotEmpty(t, id)
}
