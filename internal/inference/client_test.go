package inference

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const endpoint = "https://inference.example.com/models/deepfake"

func newTestClient(t *testing.T, maxRetries int) *Client {
	t.Helper()
	c, err := NewClient(Config{
		URL:          endpoint,
		AuthToken:    "test-token",
		ModelName:    "deep-fake-detector",
		ModelVersion: "v1",
		MaxRetries:   maxRetries,
		RetryDelay:   time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)

	httpmock.ActivateNonDefault(c.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(Config{}, zap.NewNop())
	require.Error(t, err)
}

func TestClassifySuccess(t *testing.T) {
	c := newTestClient(t, 1)
	httpmock.RegisterResponder("POST", endpoint,
		httpmock.NewStringResponder(200, `[{"label":"Fake","score":0.988},{"label":"Real","score":0.012}]`))

	result, err := c.Classify(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)

	// Label is lower-cased, only the top-ranked candidate is consumed.
	assert.Equal(t, "fake", result.Label)
	assert.Equal(t, "0.988", result.Score.String())
}

func TestClassifyScorePrecision(t *testing.T) {
	c := newTestClient(t, 1)
	httpmock.RegisterResponder("POST", endpoint,
		httpmock.NewStringResponder(200, `[{"label":"fake","score":0.98765}]`))

	result, err := c.Classify(context.Background(), []byte("img"), "image/jpeg")
	require.NoError(t, err)

	// The score survives as the exact decimal the endpoint sent.
	assert.Equal(t, "0.98765", result.Score.String())
}

func TestClassifySendsContentTypeAndAuth(t *testing.T) {
	c := newTestClient(t, 1)
	httpmock.RegisterResponder("POST", endpoint,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "image/png", req.Header.Get("Content-Type"))
			assert.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
			return httpmock.NewStringResponse(200, `[{"label":"real","score":0.6}]`), nil
		})

	_, err := c.Classify(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
}

func TestClassifyEmptyResultList(t *testing.T) {
	c := newTestClient(t, 1)
	httpmock.RegisterResponder("POST", endpoint,
		httpmock.NewStringResponder(200, `[]`))

	_, err := c.Classify(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty result list")
}

func TestClassifyMissingFields(t *testing.T) {
	c := newTestClient(t, 1)
	httpmock.RegisterResponder("POST", endpoint,
		httpmock.NewStringResponder(200, `[{"generated_text":"hello"}]`))

	_, err := c.Classify(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing label or score")
}

func TestClassifyMalformedResponse(t *testing.T) {
	c := newTestClient(t, 1)
	httpmock.RegisterResponder("POST", endpoint,
		httpmock.NewStringResponder(200, `{"error":"loading"}`))

	_, err := c.Classify(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestClassifyScoreOutOfRange(t *testing.T) {
	c := newTestClient(t, 1)
	httpmock.RegisterResponder("POST", endpoint,
		httpmock.NewStringResponder(200, `[{"label":"fake","score":1.5}]`))

	_, err := c.Classify(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside [0, 1]")
}

func TestClassifyDoesNotRetryClientErrors(t *testing.T) {
	c := newTestClient(t, 3)
	httpmock.RegisterResponder("POST", endpoint,
		httpmock.NewStringResponder(400, `{"error":"bad payload"}`))

	_, err := c.Classify(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestClassifyRetriesServerErrors(t *testing.T) {
	c := newTestClient(t, 3)
	httpmock.RegisterResponder("POST", endpoint,
		httpmock.NewStringResponder(503, "cold start"))

	_, err := c.Classify(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, 3, httpmock.GetTotalCallCount())
}

func TestClassifyRecoversAfterTransientError(t *testing.T) {
	c := newTestClient(t, 3)

	calls := 0
	httpmock.RegisterResponder("POST", endpoint,
		func(_ *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return httpmock.NewStringResponse(503, "cold start"), nil
			}
			return httpmock.NewStringResponse(200, `[{"label":"real","score":0.75}]`), nil
		})

	result, err := c.Classify(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "real", result.Label)
	assert.Equal(t, 2, calls)
}
