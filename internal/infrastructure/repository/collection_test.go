package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/pipecenter/pipecenter-api/internal/domain/entity"
	domainRepo "github.com/pipecenter/pipecenter-api/internal/domain/repository"
	"github.com/pipecenter/pipecenter-api/internal/infrastructure/blob"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
	"github.com/pipecenter/pipecenter-api/pkg/utils"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"pgregory.net/rapid"
)

const day = 24 * time.Hour

// recordingStore counts writes and can be told to fail
type recordingStore struct {
	*blob.MemoryStore
	mu      sync.Mutex
	puts    int
	failGet error
	failPut error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: blob.NewMemoryStore()}
}

func (s *recordingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.failGet != nil {
		return nil, apperror.NewStorageError("get", key, s.failGet)
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *recordingStore) Put(ctx context.Context, key string, data []byte) error {
	if s.failPut != nil {
		return apperror.NewStorageError("put", key, s.failPut)
	}
	s.mu.Lock()
	s.puts++
	s.mu.Unlock()
	return s.MemoryStore.Put(ctx, key, data)
}

func (s *recordingStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

type CollectionTestSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	blobs      *recordingStore
	hook       *logtest.Hook
	store      *Store
	configs    domainRepo.ConfigurationRepository
	quotations domainRepo.QuotationRepository
}

func TestCollectionTestSuite(t *testing.T) {
	suite.Run(t, new(CollectionTestSuite))
}

func (s *CollectionTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	var log *logrus.Logger
	log, s.hook = logtest.NewNullLogger()
	s.blobs = newRecordingStore()
	s.store = NewStore(s.blobs, log, clock)
	ids := utils.NewIDGenerator(clock)
	s.configs = NewConfigurationRepository(s.store, ids)
	s.quotations = NewQuotationRepository(s.store, ids, 30*day)
}

func ptr[T any](v T) *T { return &v }

func configDraft(name string) entity.ConfigurationDraft {
	return entity.ConfigurationDraft{
		Name:           ptr(name),
		FirstDiscount:  ptr(10.0),
		SecondDiscount: ptr(5.0),
		Margin:         ptr(15.0),
	}
}

func quotationDraft(buyer string) entity.QuotationDraft {
	return entity.QuotationDraft{
		BuyerName:    ptr(buyer),
		BuyerAddress: ptr("1 Main Street"),
		Items: &[]entity.QuotationItemDraft{{
			SNo:      ptr(entity.WholeNumber(1)),
			ItemName: ptr("GI Pipe"),
			Rate:     ptr(100.0),
			Quantity: ptr(2.0),
			Unit:     ptr("m"),
			Amount:   ptr(200.0),
		}},
		Subtotal:         ptr(200.0),
		GST:              ptr(36.0),
		TransportCharges: ptr(0.0),
		Total:            ptr(236.0),
	}
}

func (s *CollectionTestSuite) storedQuotation(id string, age time.Duration) entity.Quotation {
	return entity.Quotation{
		ID:           id,
		BuyerName:    "Buyer " + id,
		BuyerAddress: "Somewhere",
		Items: []entity.QuotationItem{
			{SNo: 1, ItemName: "Valve", Rate: 10, Quantity: 1, Unit: "pcs", Amount: 10},
		},
		Subtotal:  10,
		Total:     10,
		CreatedAt: s.now.Add(-age).UnixMilli(),
		Date:      s.now.Add(-age).Format(entity.DateLayout),
	}
}

func (s *CollectionTestSuite) seed(key string, records any) {
	data, err := json.Marshal(records)
	s.Require().NoError(err)
	s.Require().NoError(s.blobs.MemoryStore.Put(s.ctx, key, data))
}

func (s *CollectionTestSuite) raw(key string) string {
	data, err := s.blobs.MemoryStore.Get(s.ctx, key)
	s.Require().NoError(err)
	return string(data)
}

func (s *CollectionTestSuite) TestCreateConfigurationAssignsIDAndPersists() {
	created, err := s.configs.Create(s.ctx, configDraft("Standard"))
	s.Require().NoError(err)
	s.Equal(fmt.Sprint(s.now.UnixMilli()), created.ID)
	s.Equal(s.now.UnixMilli(), created.CreatedAt)

	list, err := s.configs.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(*created, list[0])
	s.Equal(1, s.blobs.putCount())
}

func (s *CollectionTestSuite) TestCreateConfigurationIDsAreUnique() {
	a, err := s.configs.Create(s.ctx, configDraft("A"))
	s.Require().NoError(err)
	b, err := s.configs.Create(s.ctx, configDraft("B"))
	s.Require().NoError(err)
	s.NotEqual(a.ID, b.ID)
}

func (s *CollectionTestSuite) TestDuplicateNameIsCaseInsensitive() {
	_, err := s.configs.Create(s.ctx, configDraft("Standard"))
	s.Require().NoError(err)
	before := s.raw(domainRepo.ConfigurationsKey)

	_, err = s.configs.Create(s.ctx, configDraft("STANDARD"))
	s.Require().Error(err)
	s.True(apperror.IsKind(err, apperror.KindDuplicate))
	s.Equal("Configuration with name 'STANDARD' already exists", err.Error())

	list, err := s.configs.List(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 1)
	s.Equal(before, s.raw(domainRepo.ConfigurationsKey))
	s.Equal(1, s.blobs.putCount())
}

func (s *CollectionTestSuite) TestDuplicateNameProperty() {
	rapid.Check(s.T(), func(t *rapid.T) {
		s.SetupTest()
		name := rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,15}`).Draw(t, "name")
		var variant strings.Builder
		for _, r := range name {
			if rapid.Bool().Draw(t, "upper") {
				variant.WriteString(strings.ToUpper(string(r)))
			} else {
				variant.WriteString(strings.ToLower(string(r)))
			}
		}

		if _, err := s.configs.Create(s.ctx, configDraft(name)); err != nil {
			t.Fatalf("first create failed: %v", err)
		}
		_, err := s.configs.Create(s.ctx, configDraft(variant.String()))
		if !apperror.IsKind(err, apperror.KindDuplicate) {
			t.Fatalf("%q after %q: expected duplicate, got %v", variant.String(), name, err)
		}
		list, err := s.configs.List(s.ctx)
		if err != nil || len(list) != 1 {
			t.Fatalf("collection changed: %d records, err %v", len(list), err)
		}
	})
}

func (s *CollectionTestSuite) TestInvalidConfigurationIsNotWritten() {
	d := configDraft("Broken")
	d.Margin = ptr(150.0)

	_, err := s.configs.Create(s.ctx, d)
	s.True(apperror.IsKind(err, apperror.KindValidation))
	s.Equal(0, s.blobs.putCount())
}

func (s *CollectionTestSuite) TestDeleteConfiguration() {
	a, err := s.configs.Create(s.ctx, configDraft("A"))
	s.Require().NoError(err)
	b, err := s.configs.Create(s.ctx, configDraft("B"))
	s.Require().NoError(err)

	s.Require().NoError(s.configs.Delete(s.ctx, a.ID))

	list, err := s.configs.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(b.ID, list[0].ID)

	got, err := s.configs.GetByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *CollectionTestSuite) TestDeleteMissingConfigurationDoesNotWrite() {
	_, err := s.configs.Create(s.ctx, configDraft("A"))
	s.Require().NoError(err)

	err = s.configs.Delete(s.ctx, "nope")
	s.True(apperror.IsKind(err, apperror.KindNotFound))
	s.Equal("Configuration with ID 'nope' not found", err.Error())
	s.Equal(1, s.blobs.putCount())
}

func (s *CollectionTestSuite) TestNegativeQuotationIsNotWritten() {
	d := quotationDraft("Acme")
	(*d.Items)[0].Rate = ptr(-5.0)

	_, err := s.quotations.Create(s.ctx, d)
	s.True(apperror.IsKind(err, apperror.KindValidation))
	s.Equal(0, s.blobs.putCount())
	s.Equal("", s.raw(domainRepo.QuotationsKey))
}

func (s *CollectionTestSuite) TestCreateQuotationDefaultsDate() {
	q, err := s.quotations.Create(s.ctx, quotationDraft("Acme"))
	s.Require().NoError(err)
	s.Equal("15/06/2024", q.Date)

	got, err := s.quotations.GetByID(s.ctx, q.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(*q, *got)
}

func (s *CollectionTestSuite) TestRetentionDropsOldQuotationsAndHeals() {
	old := s.storedQuotation("old", 31*day)
	recent := s.storedQuotation("recent", 29*day)
	s.seed(domainRepo.QuotationsKey, []entity.Quotation{old, recent})

	list, err := s.quotations.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("recent", list[0].ID)

	// The pruned collection was written back
	s.Equal(1, s.blobs.putCount())
	var stored []entity.Quotation
	s.Require().NoError(json.Unmarshal([]byte(s.raw(domainRepo.QuotationsKey)), &stored))
	s.Require().Len(stored, 1)
	s.Equal("recent", stored[0].ID)

	// A clean load does not write again
	_, err = s.quotations.List(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, s.blobs.putCount())
}

func (s *CollectionTestSuite) TestRetentionBoundaryIsExclusive() {
	s.seed(domainRepo.QuotationsKey, []entity.Quotation{s.storedQuotation("edge", 30*day)})

	list, err := s.quotations.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *CollectionTestSuite) TestCorruptQuotationIsDroppedAndHealed() {
	good := s.storedQuotation("good", day)
	goodRaw, err := json.Marshal(good)
	s.Require().NoError(err)
	blobData := fmt.Sprintf(`[%s, {"id":"bad","buyerName":"x"}, 7, null]`, goodRaw)
	s.Require().NoError(s.blobs.MemoryStore.Put(s.ctx, domainRepo.QuotationsKey, []byte(blobData)))

	list, err := s.quotations.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("good", list[0].ID)
	s.Equal(1, s.blobs.putCount())
	s.NotContains(s.raw(domainRepo.QuotationsKey), `"bad"`)

	warned := 0
	for _, e := range s.hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "Dropping invalid record" {
			warned++
		}
	}
	s.Equal(3, warned)
}

func (s *CollectionTestSuite) TestIntegralFloatTimestampsAreKept() {
	createdAt := s.now.Add(-day).UnixMilli()
	blobData := fmt.Sprintf(`[{"id":"f","buyerName":"Acme","buyerAddress":"Road",
		"items":[{"sno":1.0,"itemName":"Pipe","rate":2,"quantity":1,"unit":"m","amount":2}],
		"subtotal":2,"gst":0,"transportCharges":0,"total":2,"createdAt":%d.0,"date":"14/06/2024"}]`, createdAt)
	s.Require().NoError(s.blobs.MemoryStore.Put(s.ctx, domainRepo.QuotationsKey, []byte(blobData)))

	list, err := s.quotations.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(createdAt, list[0].CreatedAt)
	s.Equal(1, list[0].Items[0].SNo)
	s.Equal(0, s.blobs.putCount())
	s.Equal(blobData, s.raw(domainRepo.QuotationsKey))
}

func (s *CollectionTestSuite) TestCorruptConfigurationIsDroppedWithoutRewrite() {
	blobData := `[{"id":"1","name":"A","firstDiscount":1,"secondDiscount":2,"margin":3,"createdAt":1},
		{"id":"2","name":"B","firstDiscount":500,"secondDiscount":2,"margin":3,"createdAt":1}]`
	s.Require().NoError(s.blobs.MemoryStore.Put(s.ctx, domainRepo.ConfigurationsKey, []byte(blobData)))

	list, err := s.configs.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("A", list[0].Name)
	s.Equal(0, s.blobs.putCount())
}

func (s *CollectionTestSuite) TestNonArrayBlobIsEmpty() {
	s.Require().NoError(s.blobs.MemoryStore.Put(s.ctx, domainRepo.ConfigurationsKey, []byte(`{"not":"an array"}`)))

	list, err := s.configs.List(s.ctx)
	s.Require().NoError(err)
	s.NotNil(list)
	s.Empty(list)
}

func (s *CollectionTestSuite) TestUpdateMissingQuotationLeavesBlobUnchanged() {
	_, err := s.quotations.Create(s.ctx, quotationDraft("Acme"))
	s.Require().NoError(err)
	before := s.raw(domainRepo.QuotationsKey)

	_, err = s.quotations.Update(s.ctx, "X", quotationDraft("Other"))
	s.True(apperror.IsKind(err, apperror.KindNotFound))
	s.Equal(before, s.raw(domainRepo.QuotationsKey))
	s.Equal(1, s.blobs.putCount())
}

func (s *CollectionTestSuite) TestUpdateReportsNotFoundBeforeValidation() {
	d := quotationDraft("Acme")
	d.Total = ptr(-1.0)

	_, err := s.quotations.Update(s.ctx, "X", d)
	s.True(apperror.IsKind(err, apperror.KindNotFound))
}

func (s *CollectionTestSuite) TestUpdateReplacesInPlace() {
	first, err := s.quotations.Create(s.ctx, quotationDraft("First"))
	s.Require().NoError(err)
	second, err := s.quotations.Create(s.ctx, quotationDraft("Second"))
	s.Require().NoError(err)

	d := quotationDraft("First Renamed")
	d.ID = ptr("ignored")
	updated, err := s.quotations.Update(s.ctx, first.ID, d)
	s.Require().NoError(err)
	s.Equal(first.ID, updated.ID)
	s.Equal(first.CreatedAt, updated.CreatedAt)
	s.Equal(first.Date, updated.Date)

	list, err := s.quotations.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("First Renamed", list[0].BuyerName)
	s.Equal(second.ID, list[1].ID)
}

func (s *CollectionTestSuite) TestDeleteQuotation() {
	q, err := s.quotations.Create(s.ctx, quotationDraft("Acme"))
	s.Require().NoError(err)

	s.Require().NoError(s.quotations.Delete(s.ctx, q.ID))
	err = s.quotations.Delete(s.ctx, q.ID)
	s.True(apperror.IsKind(err, apperror.KindNotFound))
}

func (s *CollectionTestSuite) TestLoadIsIdempotent() {
	for _, name := range []string{"A", "B", "C"} {
		_, err := s.configs.Create(s.ctx, configDraft(name))
		s.Require().NoError(err)
	}

	first, err := s.configs.List(s.ctx)
	s.Require().NoError(err)
	second, err := s.configs.List(s.ctx)
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *CollectionTestSuite) TestSaveLoadRoundTrip() {
	s.seed(domainRepo.QuotationsKey, []entity.Quotation{
		s.storedQuotation("b", 2*day),
		s.storedQuotation("a", day),
	})
	col := NewCollection(s.store, domainRepo.QuotationsKey, entity.DecodeQuotation, nil, true)

	loaded, err := col.Load(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(col.Save(s.ctx, loaded))
	written := s.raw(domainRepo.QuotationsKey)

	again, err := col.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal(loaded, again)
	s.Equal("b", again[0].ID)

	s.Require().NoError(col.Save(s.ctx, again))
	s.Equal(written, s.raw(domainRepo.QuotationsKey))
}

func (s *CollectionTestSuite) TestConcurrentCreatesAreNotLost() {
	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.configs.Create(s.ctx, configDraft(fmt.Sprintf("config-%d", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	list, err := s.configs.List(s.ctx)
	s.Require().NoError(err)
	s.Len(list, n)
}

func (s *CollectionTestSuite) TestLockHonoursCancellation() {
	unlock, err := s.store.lock(s.ctx, domainRepo.ConfigurationsKey)
	s.Require().NoError(err)
	defer unlock()

	ctx, cancel := context.WithTimeout(s.ctx, 20*time.Millisecond)
	defer cancel()
	_, err = s.configs.List(ctx)
	s.ErrorIs(err, context.DeadlineExceeded)

	// Other keys are independent
	_, err = s.quotations.List(s.ctx)
	s.NoError(err)
}

func (s *CollectionTestSuite) TestStorageFailureSurfaces() {
	s.blobs.failGet = errors.New("connection refused")

	_, err := s.configs.List(s.ctx)
	s.True(apperror.IsKind(err, apperror.KindStorage))

	_, err = s.configs.Create(s.ctx, configDraft("A"))
	s.True(apperror.IsKind(err, apperror.KindStorage))
	s.Equal(0, s.blobs.putCount())
}

func (s *CollectionTestSuite) TestFailedHealStillReturnsRecords() {
	s.seed(domainRepo.QuotationsKey, []entity.Quotation{
		s.storedQuotation("old", 40*day),
		s.storedQuotation("new", day),
	})
	s.blobs.failPut = errors.New("read only")

	list, err := s.quotations.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("new", list[0].ID)
}

func (s *CollectionTestSuite) TestPurgeReportsRemovedCount() {
	s.seed(domainRepo.QuotationsKey, []entity.Quotation{
		s.storedQuotation("a", 45*day),
		s.storedQuotation("b", 31*day),
		s.storedQuotation("c", day),
	})

	removed, err := s.quotations.Purge(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, removed)

	removed, err = s.quotations.Purge(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, removed)
}
