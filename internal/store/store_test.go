package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbensid2/alltheplaces/internal/models"
	"github.com/abbensid2/alltheplaces/pkg/circuit"
	errs "github.com/abbensid2/alltheplaces/pkg/errors"
)

func sampleLocation(ref string) *models.Location {
	return &models.Location{
		Ref:          ref,
		Name:         models.StringPtr("Greggs"),
		Country:      models.StringPtr("GB"),
		Lat:          models.Float64Ptr(51.5),
		Lon:          models.Float64Ptr(-0.12),
		OpeningHours: models.StringPtr("Mo-Fr 07:00-18:00"),
	}
}

func TestGeoJSONSink_WritesCollection(t *testing.T) {
	var buf bytes.Buffer
	sink := NewGeoJSONSink(&buf)

	var wg sync.WaitGroup
	for _, ref := range []string{"1", "2", "3"} {
		wg.Add(1)
		go func(ref string) {
			defer wg.Done()
			assert.NoError(t, sink.Write(context.Background(), "greggs_gb", sampleLocation(ref)))
		}(ref)
	}
	wg.Wait()
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	var fc models.FeatureCollection
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, 3, sink.Count())
	for _, f := range fc.Features {
		assert.Equal(t, "GB", f.Properties["addr:country"])
		assert.Equal(t, []float64{-0.12, 51.5}, f.Geometry.Coordinates)
	}
}

func TestGeoJSONSink_EmptyCollectionIsValid(t *testing.T) {
	var buf bytes.Buffer
	sink := NewGeoJSONSink(&buf)
	require.NoError(t, sink.Close())

	var fc models.FeatureCollection
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Empty(t, fc.Features)
}

func TestGeoJSONSink_WriteAfterClose(t *testing.T) {
	sink := NewGeoJSONSink(&bytes.Buffer{})
	require.NoError(t, sink.Close())
	assert.Error(t, sink.Write(context.Background(), "x", sampleLocation("1")))
}

func TestGeoJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.geojson")
	sink, err := NewGeoJSONFile(path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(context.Background(), "kruidvat", sampleLocation("a")))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"kruidvat/a"`)
}

type execCall struct {
	query string
	args  []any
}

type fakeExecer struct {
	mu    sync.Mutex
	calls []execCall
	err   error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, execCall{query: query, args: args})
	if f.err != nil {
		return nil, f.err
	}
	return driverResult(1), nil
}

type driverResult int64

func (r driverResult) LastInsertId() (int64, error) { return 0, nil }
func (r driverResult) RowsAffected() (int64, error) { return int64(r), nil }

func TestMySQLSink_Write(t *testing.T) {
	db := &fakeExecer{}
	sink := newMySQLSink(db, time.Second)

	loc := sampleLocation("42")
	loc.Phone = nil
	require.NoError(t, sink.Write(context.Background(), "greggs_gb", loc))

	require.Len(t, db.calls, 1)
	call := db.calls[0]
	assert.Equal(t, upsertLocation, call.query)
	require.Len(t, call.args, 16)
	assert.Equal(t, "greggs_gb/42", call.args[0])
	assert.Equal(t, sql.NullString{String: "GB", Valid: true}, call.args[10])
	assert.Equal(t, sql.NullFloat64{Float64: 51.5, Valid: true}, call.args[11])
	assert.Equal(t, sql.NullString{}, call.args[13])
	assert.NoError(t, sink.Close())
}

func TestMySQLSink_WriteError(t *testing.T) {
	db := &fakeExecer{err: &mysql.MySQLError{Number: 1406, Message: "Data too long"}}
	sink := newMySQLSink(db, 0)

	err := sink.Write(context.Background(), "greggs_gb", sampleLocation("42"))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrDB))
	assert.Contains(t, err.Error(), "mysql error 1406")
}

func TestMySQLSink_Migrate(t *testing.T) {
	db := &fakeExecer{}
	require.NoError(t, newMySQLSink(db, 0).migrate(context.Background()))
	require.Len(t, db.calls, 1)
	assert.Equal(t, createLocationsTable, db.calls[0].query)
}

type fakeGeoClient struct {
	mu      sync.Mutex
	geo     map[string]map[string]*redis.GeoLocation
	data    map[string]string
	failSet  bool
	failPing bool
	closed   bool
}

func newFakeGeoClient() *fakeGeoClient {
	return &fakeGeoClient{geo: map[string]map[string]*redis.GeoLocation{}, data: map[string]string{}}
}

func (f *fakeGeoClient) GeoAdd(_ context.Context, key string, locs ...*redis.GeoLocation) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.geo[key] == nil {
		f.geo[key] = map[string]*redis.GeoLocation{}
	}
	for _, l := range locs {
		f.geo[key][l.Name] = l
	}
	return redis.NewIntResult(int64(len(locs)), nil)
}

func (f *fakeGeoClient) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet {
		return redis.NewStatusResult("", stderrors.New("READONLY"))
	}
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeGeoClient) Ping(_ context.Context) *redis.StatusCmd {
	if f.failPing {
		return redis.NewStatusResult("", stderrors.New("connection refused"))
	}
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeGeoClient) Close() error {
	f.closed = true
	return nil
}

func TestRedisSink_Write(t *testing.T) {
	client := newFakeGeoClient()
	sink := newRedisSink(client, "locations")

	loc := sampleLocation("7")
	require.NoError(t, sink.Write(context.Background(), "dominos_pizza_au", loc))

	key := MemberKey("dominos_pizza_au", loc)
	assert.Equal(t, "location:dominos_pizza_au/7", key)

	geo := client.geo["locations"][key]
	require.NotNil(t, geo)
	assert.Equal(t, 51.5, geo.Latitude)
	assert.Equal(t, -0.12, geo.Longitude)

	var f models.Feature
	require.NoError(t, json.Unmarshal([]byte(client.data[key]), &f))
	assert.Equal(t, "dominos_pizza_au/7", f.ID)

	require.NoError(t, sink.Close())
	assert.True(t, client.closed)
}

func TestRedisSink_NoCoordinatesSkipsGeoIndex(t *testing.T) {
	client := newFakeGeoClient()
	loc := sampleLocation("8")
	loc.Lat, loc.Lon = nil, nil

	require.NoError(t, newRedisSink(client, "locations").Write(context.Background(), "x", loc))
	assert.Empty(t, client.geo)
	assert.Len(t, client.data, 1)
}

func TestRedisSink_SetError(t *testing.T) {
	client := newFakeGeoClient()
	client.failSet = true

	err := newRedisSink(client, "locations").Write(context.Background(), "x", sampleLocation("9"))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrDB))
}

func TestRedisSink_Ping(t *testing.T) {
	client := newFakeGeoClient()
	sink := newRedisSink(client, "locations")
	require.NoError(t, sink.Ping(context.Background()))

	client.failPing = true
	err := sink.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrDB))
}

func TestMySQLSink_PingWithoutPool(t *testing.T) {
	assert.NoError(t, newMySQLSink(&fakeExecer{}, 0).Ping(context.Background()))
}

type failingSink struct{ calls int }

func (f *failingSink) Write(context.Context, string, *models.Location) error {
	f.calls++
	return errs.NewDB("test", "connection refused", nil)
}

func (f *failingSink) Close() error { return nil }

func TestGuarded_ShortCircuitsWhenOpen(t *testing.T) {
	inner := &failingSink{}
	cfg := circuit.Config{Name: "test", MaxConsecFailures: 2, OpenFor: time.Hour}
	g := NewGuarded(inner, circuit.New(cfg, nil, nil))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.Error(t, g.Write(ctx, "x", sampleLocation("1")))
	}
	err := g.Write(ctx, "x", sampleLocation("1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, circuit.ErrOpen)
	assert.True(t, errs.Is(err, errs.ErrDB))
	assert.Equal(t, 2, inner.calls)

	assert.NoError(t, g.Ping(ctx))
}
