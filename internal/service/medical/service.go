package medical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/repository"
	apperr "github.com/carebridge/booking-api/pkg/errors"
	"github.com/carebridge/booking-api/pkg/storage"
)

type Service struct {
	recordRepo   repository.MedicalRecordRepository
	providerRepo repository.ProviderRepository
	storage      storage.Storage
}

func NewService(
	recordRepo repository.MedicalRecordRepository,
	providerRepo repository.ProviderRepository,
	store storage.Storage,
) *Service {
	return &Service{
		recordRepo:   recordRepo,
		providerRepo: providerRepo,
		storage:      store,
	}
}

// AddRecord attaches a medical record to a patient. Only a provider who
// has had an approved appointment with the patient may write records.
func (s *Service) AddRecord(ctx context.Context, providerUserID uuid.UUID, req *model.AddMedicalRecordRequest, contentType string, attachment []byte) (*model.MedicalRecord, error) {
	provider, err := s.providerRepo.GetByUserID(ctx, providerUserID)
	if err != nil {
		return nil, err
	}
	if provider.ID != req.ProviderID {
		return nil, apperr.Forbidden("cannot write records for another provider", nil)
	}

	related, err := s.recordRepo.HasApprovedAppointment(ctx, provider.ID, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !related {
		return nil, apperr.Forbidden("no approved appointment with this patient", nil)
	}

	key := fmt.Sprintf("medical-records/%s", uuid.New())
	if len(attachment) > 0 {
		if err := s.storage.Save(ctx, key, contentType, attachment); err != nil {
			return nil, fmt.Errorf("failed to store attachment: %w", err)
		}
	} else {
		key = ""
	}

	record := &model.MedicalRecord{
		Base:         model.Base{ID: uuid.New()},
		RecordID:     fmt.Sprintf("MR-%s", time.Now().Format("20060102-150405")),
		ProviderID:   provider.ID,
		UserID:       req.PatientID,
		Attachment:   key,
		Description:  req.Description,
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
	}
	if err := s.recordRepo.Create(ctx, record); err != nil {
		if key != "" {
			_ = s.storage.Delete(ctx, key)
		}
		return nil, err
	}
	return record, nil
}

// ListForPatient returns the patient's own records.
func (s *Service) ListForPatient(ctx context.Context, userID uuid.UUID) ([]*model.MedicalRecord, error) {
	return s.recordRepo.ListForUser(ctx, userID)
}

// ListForProvider returns a patient's records to a provider, but only
// when that provider has treated the patient.
func (s *Service) ListForProvider(ctx context.Context, providerUserID, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	provider, err := s.providerRepo.GetByUserID(ctx, providerUserID)
	if err != nil {
		return nil, err
	}
	related, err := s.recordRepo.HasApprovedAppointment(ctx, provider.ID, patientID)
	if err != nil {
		return nil, err
	}
	if !related {
		return nil, apperr.Forbidden("no approved appointment with this patient", nil)
	}
	return s.recordRepo.ListForUser(ctx, patientID)
}

// GetAttachment streams a record attachment for an authorized reader:
// the patient themselves or a provider who has treated them.
func (s *Service) GetAttachment(ctx context.Context, readerUserID uuid.UUID, record *model.MedicalRecord) (*storage.Object, error) {
	if record.UserID != readerUserID {
		provider, err := s.providerRepo.GetByUserID(ctx, readerUserID)
		if err != nil {
			return nil, apperr.Forbidden("not authorized to read this record", err)
		}
		related, err := s.recordRepo.HasApprovedAppointment(ctx, provider.ID, record.UserID)
		if err != nil {
			return nil, err
		}
		if !related {
			return nil, apperr.Forbidden("not authorized to read this record", nil)
		}
	}
	if record.Attachment == "" {
		return nil, apperr.NotFound("attachment", nil)
	}
	obj, err := s.storage.Get(ctx, record.Attachment)
	if err == storage.ErrObjectNotFound {
		return nil, apperr.NotFound("attachment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	return obj, nil
}
