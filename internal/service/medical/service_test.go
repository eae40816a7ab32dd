package medical

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/repository/fake"
	apperr "github.com/carebridge/booking-api/pkg/errors"
	"github.com/carebridge/booking-api/pkg/storage"
)

type fixture struct {
	svc            *Service
	records        *fake.MedicalRecordRepo
	providers      *fake.ProviderRepo
	store          storage.Storage
	providerUserID uuid.UUID
	providerID     uuid.UUID
	patientID      uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	records := fake.NewMedicalRecordRepo()
	providers := fake.NewProviderRepo()
	store := storage.NewMemoryStorage()

	providerUserID := uuid.New()
	providerID := uuid.New()
	patientID := uuid.New()
	require.NoError(t, providers.Create(context.Background(), &model.Provider{
		Base:         model.Base{ID: providerID},
		UserID:       providerUserID,
		ProviderType: model.ProviderTypeDoctor,
		Status:       model.ApprovalStatusApproved,
	}))
	records.ApprovedPairs[[2]uuid.UUID{providerID, patientID}] = true

	return &fixture{
		svc:            NewService(records, providers, store),
		records:        records,
		providers:      providers,
		store:          store,
		providerUserID: providerUserID,
		providerID:     providerID,
		patientID:      patientID,
	}
}

func (f *fixture) addRequest() *model.AddMedicalRecordRequest {
	return &model.AddMedicalRecordRequest{
		PatientID:    f.patientID,
		ProviderID:   f.providerID,
		Diagnosis:    "seasonal flu",
		Prescription: "rest and fluids",
	}
}

func TestAddRecord(t *testing.T) {
	f := newFixture(t)

	record, err := f.svc.AddRecord(context.Background(), f.providerUserID, f.addRequest(), "application/pdf", []byte("report"))
	require.NoError(t, err)

	assert.Equal(t, f.providerID, record.ProviderID)
	assert.Equal(t, f.patientID, record.UserID)
	assert.NotEmpty(t, record.RecordID)
	require.NotEmpty(t, record.Attachment)

	obj, err := f.store.Get(context.Background(), record.Attachment)
	require.NoError(t, err)
	assert.Equal(t, []byte("report"), obj.Data)
}

func TestAddRecord_NoAttachment(t *testing.T) {
	f := newFixture(t)

	record, err := f.svc.AddRecord(context.Background(), f.providerUserID, f.addRequest(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, record.Attachment)
}

func TestAddRecord_RequiresTreatmentHistory(t *testing.T) {
	f := newFixture(t)
	stranger := uuid.New()

	req := f.addRequest()
	req.PatientID = stranger
	_, err := f.svc.AddRecord(context.Background(), f.providerUserID, req, "", nil)
	assert.True(t, apperr.Is(err, apperr.ErrForbidden))
	assert.Empty(t, f.records.Records)
}

func TestAddRecord_WrongProvider(t *testing.T) {
	f := newFixture(t)

	req := f.addRequest()
	req.ProviderID = uuid.New()
	_, err := f.svc.AddRecord(context.Background(), f.providerUserID, req, "", nil)
	assert.True(t, apperr.Is(err, apperr.ErrForbidden))
}

func TestListForProvider(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddRecord(context.Background(), f.providerUserID, f.addRequest(), "", nil)
	require.NoError(t, err)

	records, err := f.svc.ListForProvider(context.Background(), f.providerUserID, f.patientID)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = f.svc.ListForProvider(context.Background(), f.providerUserID, uuid.New())
	assert.True(t, apperr.Is(err, apperr.ErrForbidden))
}

func TestGetAttachment(t *testing.T) {
	f := newFixture(t)
	record, err := f.svc.AddRecord(context.Background(), f.providerUserID, f.addRequest(), "application/pdf", []byte("report"))
	require.NoError(t, err)

	// The patient can read their own attachment.
	obj, err := f.svc.GetAttachment(context.Background(), f.patientID, record)
	require.NoError(t, err)
	assert.Equal(t, []byte("report"), obj.Data)

	// So can the treating provider.
	obj, err = f.svc.GetAttachment(context.Background(), f.providerUserID, record)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", obj.ContentType)

	// Anyone else is refused.
	_, err = f.svc.GetAttachment(context.Background(), uuid.New(), record)
	assert.True(t, apperr.Is(err, apperr.ErrForbidden))
}

func TestGetAttachment_Missing(t *testing.T) {
	f := newFixture(t)
	record, err := f.svc.AddRecord(context.Background(), f.providerUserID, f.addRequest(), "", nil)
	require.NoError(t, err)

	_, err = f.svc.GetAttachment(context.Background(), f.patientID, record)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}
