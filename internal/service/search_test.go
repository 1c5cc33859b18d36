package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsearch/internal/model"
)

type fakeStore struct {
	mu        sync.Mutex
	rows      []model.Property
	total     int64
	err       error
	guestArgs []any
	adminArgs []any
	logged    chan model.SearchLog
	feedback  []string
}

func newFakeStore(rows []model.Property) *fakeStore {
	return &fakeStore{rows: rows, logged: make(chan model.SearchLog, 8)}
}

func (f *fakeStore) SearchGuest(_ context.Context, args []any) ([]model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guestArgs = args
	return append([]model.Property(nil), f.rows...), f.err
}

func (f *fakeStore) SearchAdmin(_ context.Context, args []any) ([]model.Property, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adminArgs = args
	return append([]model.Property(nil), f.rows...), f.total, f.err
}

func (f *fakeStore) LogSearch(_ context.Context, entry model.SearchLog) error {
	f.logged <- entry
	return nil
}

func (f *fakeStore) LogFeedback(_ context.Context, searchID string, _ int64, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedback = append(f.feedback, searchID+":"+action)
	return nil
}

func newTestService(reply string, store *fakeStore, places PlacesSearcher, geo Geocoder) *SearchService {
	opts := SearchServiceOptions{
		Extractor:    newTestExtractor(&fakeCompleter{text: reply}, nil),
		Store:        store,
		DefaultLimit: 2,
		MaxLimit:     10,
	}
	if places != nil {
		opts.Proximity = NewProximityFilter(places, ProximityOptions{})
		opts.Area = NewAreaFilter(places, 5, nil)
	}
	if geo != nil {
		opts.Resolver = NewLocationResolver(geo, nil)
	}
	return NewSearchService(opts)
}

func TestSearchService_Search(t *testing.T) {
	store := newFakeStore(properties(3))
	places := &fakePlaces{offsets: map[string][]float64{"mosque": {0.001}}}
	reply := `{"location":"DHA","listing_type":"rent","bedrooms":3,"amenities":["Parking","Mosque"],"radiusInKm":2}`
	svc := newTestService(reply, store, places, nil)

	resp, err := svc.Search(context.Background(), &model.SearchRequest{Query: "3 bed house for rent in DHA", Page: 1})
	require.NoError(t, err)

	// Compiled parameters reach the store positionally.
	require.Len(t, store.guestArgs, ParamCount)
	assert.Equal(t, "dha", store.guestArgs[ParamLocation])
	assert.Equal(t, int64(3), store.guestArgs[ParamBedroomsExact])
	assert.Equal(t, "rent", store.guestArgs[ParamListingType])
	assert.Equal(t, "parking", store.guestArgs[ParamAmenities])

	assert.NotEmpty(t, resp.SearchID)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Limit)
	assert.Equal(t, 2, resp.TotalPages)
	assert.True(t, resp.HasMore)
	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		require.Len(t, r.NearbyPlaces, 1)
		assert.Equal(t, "mosque", r.NearbyPlaces[0].PlaceType)
	}
	assert.Equal(t, []string{"mosque"}, resp.Constraints.PlacesNearby)

	select {
	case entry := <-store.logged:
		assert.Equal(t, resp.SearchID, entry.SearchID)
		assert.Equal(t, []int64{1, 2}, entry.PropertyIDs)
	case <-time.After(time.Second):
		t.Fatal("search was not logged")
	}
}

func TestSearchService_Overrides(t *testing.T) {
	store := newFakeStore(nil)
	svc := newTestService(`{"listing_type":"sale","price":50000}`, store, nil, nil)

	_, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:      "house for sale",
		Filter:     model.FilterRent,
		PriceRange: []float64{10000, 20000},
	})
	require.NoError(t, err)
	assert.Equal(t, "rent", store.guestArgs[ParamListingType])
	assert.Equal(t, 10000.0, store.guestArgs[ParamPriceMin])
	assert.Equal(t, 20000.0, store.guestArgs[ParamPriceMax])
	assert.Nil(t, store.guestArgs[ParamPriceExact])
}

func TestSearchService_NotRealEstate(t *testing.T) {
	store := newFakeStore(nil)
	svc := newTestService(`{}`, store, nil, nil)

	_, err := svc.Search(context.Background(), &model.SearchRequest{Query: "who won the cricket match"})
	require.ErrorIs(t, err, ErrNotRealEstate)
	assert.Nil(t, store.guestArgs)
}

func TestSearchService_StoreError(t *testing.T) {
	store := newFakeStore(nil)
	store.err = errors.New("connection refused")
	svc := newTestService(`{}`, store, nil, nil)

	_, err := svc.Search(context.Background(), &model.SearchRequest{Query: "house"})
	require.ErrorIs(t, err, ErrStore)
}

func TestSearchService_NormalizationFailureRunsUnconstrained(t *testing.T) {
	store := newFakeStore(properties(1))
	svc := newTestService(`{"amenities":"parking","bedrooms":3}`, store, nil, nil)

	resp, err := svc.Search(context.Background(), &model.SearchRequest{Query: "house with parking"})
	require.NoError(t, err)
	assert.True(t, resp.Constraints.IsEmpty())
	for i, v := range store.guestArgs {
		assert.Nil(t, v, "param %d", i)
	}
	assert.Len(t, resp.Results, 1)
}

func TestSearchService_AdminTotal(t *testing.T) {
	store := newFakeStore(properties(2))
	store.total = 41
	svc := newTestService(`{}`, store, nil, nil)

	resp, err := svc.AdminSearch(context.Background(), &model.SearchRequest{Query: "house", Limit: 10})
	require.NoError(t, err)
	require.Len(t, store.adminArgs, ParamCount)
	assert.Nil(t, store.guestArgs)
	assert.Equal(t, 41, resp.Total)
	assert.Equal(t, 5, resp.TotalPages)
	assert.True(t, resp.HasMore)
}

func TestSearchService_Area(t *testing.T) {
	candidates := []model.Property{
		property(1, 31.500, 74.300),
		property(2, 31.600, 74.300),
	}
	store := newFakeStore(candidates)
	places := &stubPlaces{byCategory: map[string][]model.Place{
		"school": {{Name: "Beaconhouse", Latitude: 31.501, Longitude: 74.300}},
	}}
	geo := &stubGeocoder{known: map[string]model.Coordinates{"gulberg": {Lat: 31.5, Lon: 74.3}}}

	svc := NewSearchService(SearchServiceOptions{
		Extractor: newTestExtractor(&fakeCompleter{text: `{"location":"Gulberg","places_nearby":["school"],"radiusInKm":1}`}, nil),
		Store:     store,
		Area:      NewAreaFilter(places, 5, nil),
		Resolver:  NewLocationResolver(geo, nil),
	})

	resp, err := svc.SearchArea(context.Background(), &model.SearchRequest{Query: "house in gulberg near a school"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(1), resp.Results[0].Property.ID)
	assert.Nil(t, resp.Results[0].NearbyPlaces)
	assert.Equal(t, []string{"gulberg"}, geo.asked)
}

func TestSearchService_StreamEvents(t *testing.T) {
	store := newFakeStore(properties(1))
	places := &fakePlaces{offsets: map[string][]float64{"gym": {0.001}}}
	svc := newTestService(`{"places_nearby":["gym"]}`, store, places, nil)

	var events []string
	resp, err := svc.SearchStream(context.Background(), &model.SearchRequest{Query: "flat near a gym"}, func(event string, _ any) error {
		events = append(events, event)
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, []string{
		EventStart, EventExtracting, EventConstraints, EventSearching,
		EventFiltering, EventResults, EventDone,
	}, events)
}

func TestSearchService_StreamCallbackErrorStops(t *testing.T) {
	store := newFakeStore(nil)
	svc := newTestService(`{}`, store, nil, nil)
	stop := errors.New("client gone")

	_, err := svc.SearchStream(context.Background(), &model.SearchRequest{Query: "house"}, func(event string, _ any) error {
		if event == EventConstraints {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Nil(t, store.guestArgs)
}

func TestSearchService_LimitClamp(t *testing.T) {
	svc := newTestService(`{}`, newFakeStore(nil), nil, nil)
	assert.Equal(t, 2, svc.limitFor(&model.SearchRequest{}))
	assert.Equal(t, 7, svc.limitFor(&model.SearchRequest{Limit: 7}))
	assert.Equal(t, 10, svc.limitFor(&model.SearchRequest{Limit: 500}))
}
