package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/smartfarmer/backend/internal/config"
	"github.com/smartfarmer/backend/internal/domain"
	"github.com/smartfarmer/backend/internal/observability"
)

// memRepo records saves in memory.
type memRepo struct {
	mu          sync.Mutex
	weather     []domain.WeatherSnapshot
	predictions []domain.PredictionLog
}

func (m *memRepo) SaveWeatherSnapshot(_ context.Context, w domain.WeatherSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weather = append(m.weather, w)
	return nil
}

func (m *memRepo) SavePredictionLog(_ context.Context, e domain.PredictionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions = append(m.predictions, e)
	return nil
}

func (m *memRepo) RecentPredictions(_ context.Context, limit int) ([]domain.PredictionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.predictions) {
		limit = len(m.predictions)
	}
	return append([]domain.PredictionLog(nil), m.predictions[:limit]...), nil
}

func (m *memRepo) Health(context.Context) error { return nil }

// fakeWeather serves fixed data, optionally blocking the first current-weather call.
type fakeWeather struct {
	snap        domain.WeatherSnapshot
	forecast    []domain.DailyPoint
	err         error
	blockFirst  bool
	started     chan struct{}
	release     chan struct{}
	currentHits atomic.Int32
}

func (f *fakeWeather) GetCurrentWeather(ctx context.Context, _ string) (domain.WeatherSnapshot, error) {
	if f.currentHits.Add(1) == 1 && f.blockFirst {
		close(f.started)
		select {
		case <-ctx.Done():
			return domain.WeatherSnapshot{}, ctx.Err()
		case <-f.release:
		}
	}
	return f.snap, f.err
}

func (f *fakeWeather) GetWeatherByCoordinates(ctx context.Context, _, _ float64) (domain.WeatherSnapshot, error) {
	return f.GetCurrentWeather(ctx, "")
}

func (f *fakeWeather) GetForecast(context.Context, string, int) ([]domain.DailyPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.forecast, nil
}

type orchestratorDeps struct {
	cfg      *config.Config
	weather  WeatherGateway
	provider AdvisoryProvider
	repo     *memRepo
}

func newTestOrchestrator(d orchestratorDeps) *Orchestrator {
	if d.cfg == nil {
		d.cfg = testConfig()
	}
	if d.repo == nil {
		d.repo = &memRepo{}
	}
	clock := clockwork.NewFakeClockAt(testNow)
	metrics := observability.NewMetricsForTesting()
	sim := NewSeededSimulator(11, clock)
	if d.weather == nil {
		d.weather = newTestWeather(d.cfg, nil)
	}
	yield := NewYieldService(d.cfg, sim, metrics, zap.NewNop())
	advisory := NewAdvisoryService(d.provider, clock, metrics, zap.NewNop())
	return NewOrchestrator(d.cfg, d.weather, yield, advisory, sim, d.repo, clock, metrics, zap.NewNop())
}

func realWeather() *fakeWeather {
	return &fakeWeather{
		snap: domain.WeatherSnapshot{District: "Cuttack", City: "Cuttack", Temperature: 31, Humidity: 70, Condition: "Clouds", Icon: "☁️"},
		forecast: []domain.DailyPoint{
			{TempMin: 26, TempMax: 32, Condition: "Clouds", Description: "broken clouds"},
			{TempMin: 25, TempMax: 30, Condition: "Rain", Description: "light rain"},
		},
	}
}

func TestFetchDashboardSnapshot_ProviderErrorSimulatesWeather(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	cfg := testConfig()
	cfg.OpenWeatherAPIKey = "k"
	cfg.OpenWeatherBaseURL = srv.URL
	provider := &stubProvider{answer: "unused"}
	repo := &memRepo{}
	o := newTestOrchestrator(orchestratorDeps{cfg: cfg, provider: provider, repo: repo})

	env, err := o.FetchDashboardSnapshot(context.Background(), "s1", "Cuttack", domain.LanguageEnglish)
	require.NoError(t, err)
	o.WaitBackground()

	require.True(t, env.Success)
	assert.Equal(t, NoteSimulatedWeather, env.Note)
	snap := env.Data
	assert.True(t, snap.Weather.IsMock)
	assert.GreaterOrEqual(t, snap.Weather.Temperature, 28)
	assert.Less(t, snap.Weather.Temperature, 36)
	assert.GreaterOrEqual(t, snap.Weather.Humidity, 60)
	assert.Less(t, snap.Weather.Humidity, 80)
	assert.Equal(t, "Cuttack", snap.Weather.City)
	assert.Equal(t, todayTips[domain.LanguageEnglish], snap.Suggestions.Today)
	assert.Equal(t, tomorrowTips[domain.LanguageEnglish], snap.Suggestions.Tomorrow)
	assert.Equal(t, 0, provider.calls, "no advice is requested for simulated weather")
	assert.Empty(t, repo.weather, "simulated weather is not persisted")
	assert.Equal(t, testNow, snap.GeneratedAt)
}

func TestFetchDashboardSnapshot_RealWeather(t *testing.T) {
	long := strings.Repeat("a", 250)
	repo := &memRepo{}
	o := newTestOrchestrator(orchestratorDeps{weather: realWeather(), provider: &stubProvider{answer: long}, repo: repo})

	env, err := o.FetchDashboardSnapshot(context.Background(), "s1", "", "")
	require.NoError(t, err)
	o.WaitBackground()

	require.True(t, env.Success)
	assert.Empty(t, env.Note)
	snap := env.Data
	assert.Equal(t, "Cuttack", snap.District)
	assert.Equal(t, domain.LanguageEnglish, snap.Language)
	assert.Equal(t, strings.Repeat("a", 200)+"...", snap.Suggestions.Today)
	assert.Equal(t, "Tomorrow: light rain, 30°C/25°C", snap.Suggestions.Tomorrow)
	assert.Len(t, snap.Forecast, 2)
	require.Len(t, repo.weather, 1)
	assert.Equal(t, "Cuttack", repo.weather[0].City)
}

func TestFetchDashboardSnapshot_AdviceDownUsesStaticTip(t *testing.T) {
	o := newTestOrchestrator(orchestratorDeps{weather: realWeather(), provider: &stubProvider{err: domain.ErrRemoteUnavailable}})

	env, err := o.FetchDashboardSnapshot(context.Background(), "s1", "Cuttack", domain.LanguageHindi)
	require.NoError(t, err)
	o.WaitBackground()

	assert.Equal(t, NoteStaticAdvice, env.Note)
	assert.Equal(t, todayTips[domain.LanguageHindi], env.Data.Suggestions.Today)
	assert.False(t, env.Data.Weather.IsMock)
}

func TestFetchDashboardSnapshot_SupersededRequestIsDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	weather := realWeather()
	weather.blockFirst = true
	weather.started = make(chan struct{})
	o := newTestOrchestrator(orchestratorDeps{weather: weather, provider: &stubProvider{answer: "ok"}})

	type result struct {
		env domain.Envelope[domain.DashboardSnapshot]
		err error
	}
	stale := make(chan result, 1)
	go func() {
		env, err := o.FetchDashboardSnapshot(context.Background(), "s1", "Cuttack", domain.LanguageEnglish)
		stale <- result{env, err}
	}()
	<-weather.started

	fresh, err := o.FetchDashboardSnapshot(context.Background(), "s1", "Cuttack", domain.LanguageEnglish)
	require.NoError(t, err)
	assert.True(t, fresh.Success)

	old := <-stale
	assert.True(t, IsSuperseded(old.err))
	assert.Nil(t, old.env.Data)

	o.WaitBackground()
	assert.Equal(t, 0, o.tracker.InFlight())
}

func TestFetchDashboardSnapshot_AnonymousClientsDoNotCancelEachOther(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	weather := realWeather()
	weather.blockFirst = true
	weather.started = make(chan struct{})
	weather.release = make(chan struct{})
	o := newTestOrchestrator(orchestratorDeps{weather: weather, provider: &stubProvider{answer: "ok"}})

	type result struct {
		env domain.Envelope[domain.DashboardSnapshot]
		err error
	}
	first := make(chan result, 1)
	go func() {
		env, err := o.FetchDashboardSnapshot(context.Background(), "", "Cuttack", domain.LanguageEnglish)
		first <- result{env, err}
	}()
	<-weather.started

	second, err := o.FetchDashboardSnapshot(context.Background(), "", "Puri", domain.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Puri", second.Data.District)

	close(weather.release)
	got := <-first
	require.NoError(t, got.err)
	require.NotNil(t, got.env.Data)
	assert.Equal(t, "Cuttack", got.env.Data.District)
	assert.False(t, got.env.Data.Weather.IsMock, "first client's weather call was not cancelled")

	o.WaitBackground()
}

func TestFetchDashboardSnapshot_SessionsAreIndependent(t *testing.T) {
	o := newTestOrchestrator(orchestratorDeps{weather: realWeather(), provider: &stubProvider{answer: "ok"}})

	_, err := o.FetchDashboardSnapshot(context.Background(), "a", "Cuttack", "")
	require.NoError(t, err)
	_, err = o.FetchDashboardSnapshot(context.Background(), "b", "Cuttack", "")
	require.NoError(t, err)
	o.WaitBackground()
}

func TestSubmitPrediction_MissingDistrictMakesNoNetworkCall(t *testing.T) {
	ml := newCountingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"predicted_yield": 30}`))
	})
	chat := newCountingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response": "ok"}`))
	})
	cfg := testConfig()
	cfg.MLServiceURL = ml.URL
	o := newTestOrchestrator(orchestratorDeps{
		cfg:      cfg,
		provider: NewChatbotClient(chat.URL, config.ChatbotPayloadMessage, time.Second),
	})

	in := riceInput()
	in.District = ""
	env, err := o.SubmitPrediction(context.Background(), "s1", in, domain.LanguageEnglish)

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, env.Success)
	assert.Equal(t, "district is required", env.Message)
	assert.Equal(t, 0, ml.Calls())
	assert.Equal(t, 0, chat.Calls())
}

func TestSubmitPrediction_ModelDownAdviceUp(t *testing.T) {
	ml := newCountingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	cfg := testConfig()
	cfg.MLServiceURL = ml.URL
	repo := &memRepo{}
	o := newTestOrchestrator(orchestratorDeps{cfg: cfg, provider: &stubProvider{answer: "Plant in lines."}, repo: repo})

	env, err := o.SubmitPrediction(context.Background(), "s1", riceInput(), domain.LanguageEnglish)
	require.NoError(t, err)
	o.WaitBackground()

	require.True(t, env.Success)
	assert.Equal(t, NoteSimulatedPrediction, env.Note)
	assert.True(t, env.Data.Prediction.IsMock)
	assert.Equal(t, "Plant in lines.", env.Data.Advice)
	assert.Empty(t, env.Data.AdviceNote)
	require.Len(t, repo.predictions, 1)
	assert.Equal(t, NoteSimulatedPrediction, repo.predictions[0].Note)
	assert.NotEmpty(t, repo.predictions[0].ID)
}

func TestSubmitPrediction_ModelUpAdviceDown(t *testing.T) {
	ml := newCountingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"predicted_yield": 30}`))
	})
	cfg := testConfig()
	cfg.MLServiceURL = ml.URL
	o := newTestOrchestrator(orchestratorDeps{cfg: cfg, provider: &stubProvider{err: errors.New("down")}})

	env, err := o.SubmitPrediction(context.Background(), "s1", riceInput(), domain.LanguageOdia)
	require.NoError(t, err)
	o.WaitBackground()

	require.True(t, env.Success)
	assert.False(t, env.Data.Prediction.IsMock)
	assert.Equal(t, 30.0, env.Data.Prediction.PredictedYield)
	assert.Equal(t, cropAdviceFallback[domain.LanguageOdia], env.Data.Advice)
	assert.Equal(t, NoteStaticAdvice, env.Data.AdviceNote)
	assert.Equal(t, NoteStaticAdvice, env.Note)
}

func TestSubmitPrediction_TimeoutFallsBack(t *testing.T) {
	ml := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	cfg := testConfig()
	cfg.MLServiceURL = ml.URL
	cfg.RemoteTimeout = 50 * time.Millisecond
	o := newTestOrchestrator(orchestratorDeps{cfg: cfg})

	start := time.Now()
	env, err := o.SubmitPrediction(context.Background(), "s1", riceInput(), domain.LanguageEnglish)
	require.NoError(t, err)
	o.WaitBackground()

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, NoteSimulatedPrediction, env.Note)
}

func TestSendChatMessage(t *testing.T) {
	t.Run("empty message is a validation error", func(t *testing.T) {
		o := newTestOrchestrator(orchestratorDeps{})
		env, err := o.SendChatMessage(context.Background(), "s1", "   ", domain.AdvisoryContext{})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.False(t, env.Success)
		assert.Equal(t, "message is required", env.Message)
	})

	t.Run("provider answer", func(t *testing.T) {
		p := &stubProvider{answer: "Use neem oil."}
		o := newTestOrchestrator(orchestratorDeps{provider: p})
		env, err := o.SendChatMessage(context.Background(), "s1", "aphids?", domain.AdvisoryContext{Language: "or"})
		require.NoError(t, err)
		assert.Empty(t, env.Note)
		assert.Equal(t, "Use neem oil.", env.Data.Message)
		assert.Equal(t, domain.LanguageOdia, env.Data.Language)
		assert.Equal(t, "s1", p.last.UserID)
	})

	t.Run("provider down", func(t *testing.T) {
		o := newTestOrchestrator(orchestratorDeps{provider: &stubProvider{err: domain.ErrRemoteUnavailable}})
		env, err := o.SendChatMessage(context.Background(), "", "Hello, how control pests?", domain.AdvisoryContext{})
		require.NoError(t, err)
		assert.True(t, env.Success)
		assert.Equal(t, NoteOfflineChat, env.Note)
		assert.Equal(t, cannedResponses[domain.LanguageEnglish][categoryGreeting], env.Data.Message)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "नम...", truncate("नमस्ते", 2))
}
