package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"go-medical-appointment/internal/converter"
	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/internal/domain/repository"
	"go-medical-appointment/internal/service"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

var (
	ErrAnalysisNotFound           = errors.New("analysis not found")
	ErrAnalysisCodeExists         = errors.New("analysis code already exists")
	ErrAnalysisInUse              = errors.New("analysis has been ordered and cannot be deleted")
	ErrPatientAnalysisNotFound    = errors.New("patient analysis not found")
	ErrAppointmentPatientMismatch = errors.New("appointment belongs to a different patient")
	ErrResultNotRecorded          = errors.New("no result recorded for this analysis")
	ErrResultNotStored            = errors.New("result path is not a stored file")
	ErrResultStorageDisabled      = errors.New("result file storage is not configured")
	ErrUnsupportedResultFile      = errors.New("result file must be a PDF, PNG or JPEG")
	ErrInvalidCatalogFile         = errors.New("invalid analysis catalog file")
)

const (
	ResultKeyPrefix = "results/"

	catalogCacheTTL     = 5 * time.Minute
	catalogCacheCleanup = 10 * time.Minute
)

var allowedResultTypes = []string{"application/pdf", "image/png", "image/jpeg"}

// ResultStorage keeps uploaded result files.
type ResultStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PresignGet(ctx context.Context, key string) (string, time.Time, error)
}

type AnalysisUsecase interface {
	CreateAnalysis(ctx context.Context, req *dto.CreateAnalysisRequest) (*dto.AnalysisResponse, error)
	GetAnalysis(ctx context.Context, id int) (*dto.AnalysisResponse, error)
	ListAnalyses(ctx context.Context, page, limit int) ([]dto.AnalysisResponse, int64, error)
	UpdateAnalysis(ctx context.Context, id int, req *dto.UpdateAnalysisRequest) (*dto.AnalysisResponse, error)
	DeleteAnalysis(ctx context.Context, id int) error
	SeedCatalog(ctx context.Context, r io.Reader) (int64, error)

	OrderAnalysis(ctx context.Context, req *dto.OrderAnalysisRequest) (*dto.PatientAnalysisResponse, error)
	GetPatientAnalysis(ctx context.Context, id int) (*dto.PatientAnalysisResponse, error)
	RecordResult(ctx context.Context, id int, req *dto.RecordResultRequest) (*dto.PatientAnalysisResponse, error)
	UploadResultFile(ctx context.Context, id int, data []byte, interpretation string) (*dto.PatientAnalysisResponse, error)
	DownloadResult(ctx context.Context, id int) (*dto.ResultDownloadResponse, error)

	GetHistory(ctx context.Context, patientID uuid.UUID) (*dto.AnalysisHistoryResponse, error)
}

type analysisUsecase struct {
	db                  *gorm.DB
	log                 *logrus.Logger
	analysisRepo        repository.AnalysisRepository
	patientAnalysisRepo repository.PatientAnalysisRepository
	patientProfileRepo  repository.PatientProfileRepository
	appointmentRepo     repository.AppointmentRepository
	auditService        service.AuditService
	historyCache        service.HistoryCache
	storage             ResultStorage
	publisher           service.EventPublisher
	catalog             *cache.Cache
}

// NewAnalysisUsecase wires the analysis flows. storage may be nil when file
// uploads are disabled.
func NewAnalysisUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	analysisRepo repository.AnalysisRepository,
	patientAnalysisRepo repository.PatientAnalysisRepository,
	patientProfileRepo repository.PatientProfileRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
	historyCache service.HistoryCache,
	storage ResultStorage,
	publisher service.EventPublisher,
) AnalysisUsecase {
	return &analysisUsecase{
		db:                  db,
		log:                 log,
		analysisRepo:        analysisRepo,
		patientAnalysisRepo: patientAnalysisRepo,
		patientProfileRepo:  patientProfileRepo,
		appointmentRepo:     appointmentRepo,
		auditService:        auditService,
		historyCache:        historyCache,
		storage:             storage,
		publisher:           publisher,
		catalog:             cache.New(catalogCacheTTL, catalogCacheCleanup),
	}
}

func catalogItemKey(id int) string {
	return fmt.Sprintf("analysis:%d", id)
}

func catalogPageKey(page, limit int) string {
	return fmt.Sprintf("analyses:%d:%d", page, limit)
}

type catalogPage struct {
	items []dto.AnalysisResponse
	total int64
}

// Catalog

func (u *analysisUsecase) CreateAnalysis(ctx context.Context, req *dto.CreateAnalysisRequest) (*dto.AnalysisResponse, error) {
	userID, err := u.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	analysis := &entity.Analysis{
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
	}
	if err := entity.ValidateCost(analysis.Price); err != nil {
		return nil, err
	}

	if err := u.analysisRepo.Create(ctx, analysis); err != nil {
		if isDuplicateKeyError(err, "code") {
			return nil, ErrAnalysisCodeExists
		}
		u.log.Warnf("Failed to create analysis: %+v", err)
		return nil, err
	}

	response := converter.AnalysisToResponse(analysis)
	if err := u.auditService.LogCreate(ctx, u.db, &userID, entity.AuditActionAnalysisCreate, "analysis", fmt.Sprint(analysis.ID), response); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	u.catalog.Flush()
	return response, nil
}

func (u *analysisUsecase) GetAnalysis(ctx context.Context, id int) (*dto.AnalysisResponse, error) {
	if cached, found := u.catalog.Get(catalogItemKey(id)); found {
		response := cached.(dto.AnalysisResponse)
		return &response, nil
	}

	analysis, err := u.analysisRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find analysis %d: %+v", id, err)
		return nil, err
	}
	if analysis == nil {
		return nil, ErrAnalysisNotFound
	}

	// The cache holds values so callers never share an entry.
	response := converter.AnalysisToResponse(analysis)
	u.catalog.SetDefault(catalogItemKey(id), *response)
	return response, nil
}

func (u *analysisUsecase) ListAnalyses(ctx context.Context, page, limit int) ([]dto.AnalysisResponse, int64, error) {
	p := dto.PageRequest{Page: page, Limit: limit}.Normalize()
	key := catalogPageKey(p.Page, p.Limit)

	if cached, found := u.catalog.Get(key); found {
		entry := cached.(catalogPage)
		return slices.Clone(entry.items), entry.total, nil
	}

	analyses, total, err := u.analysisRepo.FindAll(ctx, p.Limit, p.Offset())
	if err != nil {
		u.log.Warnf("Failed to list analyses: %+v", err)
		return nil, 0, err
	}

	items := converter.AnalysesToResponses(analyses)
	u.catalog.SetDefault(key, catalogPage{items: slices.Clone(items), total: total})
	return items, total, nil
}

func (u *analysisUsecase) UpdateAnalysis(ctx context.Context, id int, req *dto.UpdateAnalysisRequest) (*dto.AnalysisResponse, error) {
	userID, err := u.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	analysis, err := u.analysisRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find analysis %d: %+v", id, err)
		return nil, err
	}
	if analysis == nil {
		return nil, ErrAnalysisNotFound
	}
	if err := entity.ValidateCost(*req.Price); err != nil {
		return nil, err
	}

	oldValue := converter.AnalysisToResponse(analysis)
	analysis.Name = req.Name
	analysis.Description = req.Description
	analysis.Price = *req.Price

	if err := u.analysisRepo.Update(ctx, analysis); err != nil {
		u.log.Warnf("Failed to update analysis %d: %+v", id, err)
		return nil, err
	}

	newValue := converter.AnalysisToResponse(analysis)
	if err := u.auditService.LogUpdate(ctx, u.db, &userID, entity.AuditActionAnalysisUpdate, "analysis", fmt.Sprint(id), oldValue, newValue); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	u.catalog.Flush()
	return newValue, nil
}

func (u *analysisUsecase) DeleteAnalysis(ctx context.Context, id int) error {
	userID, err := u.requireAdmin(ctx)
	if err != nil {
		return err
	}

	analysis, err := u.analysisRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find analysis %d: %+v", id, err)
		return err
	}
	if analysis == nil {
		return ErrAnalysisNotFound
	}

	if err := u.analysisRepo.Delete(ctx, id); err != nil {
		if isForeignKeyError(err, "analysis_id") {
			return ErrAnalysisInUse
		}
		u.log.Warnf("Failed to delete analysis %d: %+v", id, err)
		return err
	}

	if err := u.auditService.LogDelete(ctx, u.db, &userID, entity.AuditActionAnalysisDelete, "analysis", fmt.Sprint(id), converter.AnalysisToResponse(analysis)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	u.catalog.Flush()
	return nil
}

type catalogFile struct {
	Analyses []catalogEntry `yaml:"analyses"`
}

type catalogEntry struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
}

// SeedCatalog upserts catalog entries from a YAML document keyed by code.
func (u *analysisUsecase) SeedCatalog(ctx context.Context, r io.Reader) (int64, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCatalogFile, err)
	}

	seen := make(map[string]struct{}, len(file.Analyses))
	analyses := make([]entity.Analysis, 0, len(file.Analyses))
	for i, entry := range file.Analyses {
		code := strings.ToUpper(strings.TrimSpace(entry.Code))
		if code == "" || strings.TrimSpace(entry.Name) == "" {
			return 0, fmt.Errorf("%w: entry %d needs code and name", ErrInvalidCatalogFile, i)
		}
		if _, dup := seen[code]; dup {
			return 0, fmt.Errorf("%w: duplicate code %s", ErrInvalidCatalogFile, code)
		}
		seen[code] = struct{}{}

		price := decimal.Zero
		if entry.Price != "" {
			p, err := decimal.NewFromString(entry.Price)
			if err != nil {
				return 0, fmt.Errorf("%w: %s price %q: %v", ErrInvalidCatalogFile, code, entry.Price, err)
			}
			price = p
		}
		if err := entity.ValidateCost(price); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidCatalogFile, code, err)
		}

		analyses = append(analyses, entity.Analysis{
			Code:        code,
			Name:        strings.TrimSpace(entry.Name),
			Description: entry.Description,
			Price:       price,
		})
	}

	affected, err := u.analysisRepo.Upsert(ctx, analyses)
	if err != nil {
		u.log.Warnf("Failed to seed analysis catalog: %+v", err)
		return 0, err
	}

	u.catalog.Flush()
	u.log.Infof("Analysis catalog seeded: %d entries", affected)
	return affected, nil
}

// Patient analyses

func (u *analysisUsecase) OrderAnalysis(ctx context.Context, req *dto.OrderAnalysisRequest) (*dto.PatientAnalysisResponse, error) {
	userID, err := u.requireStaff(ctx)
	if err != nil {
		return nil, err
	}

	analysisDate, err := time.Parse(dateLayout, req.AnalysisDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	analysis, err := u.analysisRepo.FindByID(ctx, req.AnalysisID)
	if err != nil {
		u.log.Warnf("Failed to find analysis %d: %+v", req.AnalysisID, err)
		return nil, err
	}
	if analysis == nil {
		return nil, ErrAnalysisNotFound
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	exists, err := u.patientProfileRepo.Exists(ctx, tx, req.PatientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", req.PatientID, err)
		return nil, err
	}
	if !exists {
		return nil, ErrPatientNotFound
	}

	if req.AppointmentID != nil {
		appointment, err := u.appointmentRepo.FindByID(tx, *req.AppointmentID)
		if err != nil {
			u.log.Warnf("Failed to find appointment %s: %+v", *req.AppointmentID, err)
			return nil, err
		}
		if appointment == nil {
			return nil, ErrAppointmentNotFound
		}
		if appointment.PatientID != req.PatientID {
			return nil, ErrAppointmentPatientMismatch
		}
	}

	patientAnalysis := &entity.PatientAnalysis{
		PatientID:     req.PatientID,
		AnalysisID:    analysis.ID,
		AppointmentID: req.AppointmentID,
		OrderedBy:     userID,
		AnalysisDate:  analysisDate,
		Status:        entity.PatientAnalysisStatusPending,
	}
	if err := u.patientAnalysisRepo.Create(tx, patientAnalysis); err != nil {
		u.log.Warnf("Failed to order analysis: %+v", err)
		return nil, err
	}
	patientAnalysis.Analysis = *analysis

	response := converter.PatientAnalysisToResponse(patientAnalysis)
	if err := u.auditService.LogCreate(ctx, tx, &userID, entity.AuditActionAnalysisOrder, "patient_analysis", fmt.Sprint(patientAnalysis.ID), response); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.invalidateHistory(ctx, req.PatientID)
	return response, nil
}

func (u *analysisUsecase) GetPatientAnalysis(ctx context.Context, id int) (*dto.PatientAnalysisResponse, error) {
	patientAnalysis, err := u.findVisiblePatientAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	return converter.PatientAnalysisToResponse(patientAnalysis), nil
}

// RecordResult stores the report path and reading; at most one result exists
// per patient analysis and recording it completes the analysis.
func (u *analysisUsecase) RecordResult(ctx context.Context, id int, req *dto.RecordResultRequest) (*dto.PatientAnalysisResponse, error) {
	userID, err := u.requireStaff(ctx)
	if err != nil {
		return nil, err
	}
	return u.saveResult(ctx, userID, id, strings.TrimSpace(req.Path), req.Interpretation)
}

// UploadResultFile stores a PDF or image report and records its object key
// as the result path.
func (u *analysisUsecase) UploadResultFile(ctx context.Context, id int, data []byte, interpretation string) (*dto.PatientAnalysisResponse, error) {
	userID, err := u.requireStaff(ctx)
	if err != nil {
		return nil, err
	}
	if u.storage == nil {
		return nil, ErrResultStorageDisabled
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedResultTypes...) {
		return nil, ErrUnsupportedResultFile
	}

	existing, err := u.patientAnalysisRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find patient analysis %d: %+v", id, err)
		return nil, err
	}
	if existing == nil {
		return nil, ErrPatientAnalysisNotFound
	}

	key := fmt.Sprintf("%s%d/%s%s", ResultKeyPrefix, id, uuid.New().String(), mtype.Extension())
	if err := u.storage.Upload(ctx, key, data, mtype.String()); err != nil {
		u.log.Warnf("Failed to upload result file for patient analysis %d: %+v", id, err)
		return nil, err
	}

	response, err := u.saveResult(ctx, userID, id, key, interpretation)
	if err != nil {
		u.log.Warnf("Uploaded result %s is orphaned: %+v", key, err)
		return nil, err
	}
	return response, nil
}

func (u *analysisUsecase) saveResult(ctx context.Context, userID uuid.UUID, id int, path, interpretation string) (*dto.PatientAnalysisResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	patientAnalysis, err := u.patientAnalysisRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find patient analysis %d: %+v", id, err)
		return nil, err
	}
	if patientAnalysis == nil {
		return nil, ErrPatientAnalysisNotFound
	}
	oldValue := converter.PatientAnalysisToResponse(patientAnalysis)

	result := &entity.AnalysisResult{
		PatientAnalysisID: id,
		Path:              path,
		Interpretation:    interpretation,
		RecordedBy:        userID,
	}
	if err := u.patientAnalysisRepo.SaveResult(tx, result); err != nil {
		u.log.Warnf("Failed to save result for patient analysis %d: %+v", id, err)
		return nil, err
	}
	if err := u.patientAnalysisRepo.MarkCompleted(tx, id); err != nil {
		u.log.Warnf("Failed to complete patient analysis %d: %+v", id, err)
		return nil, err
	}

	patientAnalysis.Status = entity.PatientAnalysisStatusCompleted
	if patientAnalysis.Result == nil {
		patientAnalysis.Result = result
	} else {
		patientAnalysis.Result.Path = path
		patientAnalysis.Result.Interpretation = interpretation
		patientAnalysis.Result.RecordedBy = userID
		patientAnalysis.Result.UpdatedAt = result.UpdatedAt
	}

	newValue := converter.PatientAnalysisToResponse(patientAnalysis)
	if err := u.auditService.LogUpdate(ctx, tx, &userID, entity.AuditActionAnalysisResult, "patient_analysis", fmt.Sprint(id), oldValue, newValue); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.invalidateHistory(ctx, patientAnalysis.PatientID)
	service.PublishAfterCommit(ctx, u.log, u.publisher, entity.NewDomainEvent(
		entity.EventAnalysisResult,
		fmt.Sprint(id),
		map[string]interface{}{
			"patient_id":    patientAnalysis.PatientID.String(),
			"analysis_name": patientAnalysis.Analysis.Name,
			"path":          path,
		},
	))

	return newValue, nil
}

// DownloadResult returns a presigned URL for an uploaded result file.
func (u *analysisUsecase) DownloadResult(ctx context.Context, id int) (*dto.ResultDownloadResponse, error) {
	patientAnalysis, err := u.findVisiblePatientAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if patientAnalysis.Result == nil || patientAnalysis.Result.Path == "" {
		return nil, ErrResultNotRecorded
	}
	if !strings.HasPrefix(patientAnalysis.Result.Path, ResultKeyPrefix) {
		return nil, ErrResultNotStored
	}
	if u.storage == nil {
		return nil, ErrResultStorageDisabled
	}

	url, expiresAt, err := u.storage.PresignGet(ctx, patientAnalysis.Result.Path)
	if err != nil {
		u.log.Warnf("Failed to presign result for patient analysis %d: %+v", id, err)
		return nil, err
	}

	return &dto.ResultDownloadResponse{URL: url, ExpiresAt: expiresAt}, nil
}

// GetHistory returns the patient's analyses newest first, served from Redis
// when cached. Cache failures fall back to the database.
func (u *analysisUsecase) GetHistory(ctx context.Context, patientID uuid.UUID) (*dto.AnalysisHistoryResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.canViewPatient(patientID) {
		return nil, ErrForbidden
	}

	if history, found, err := u.historyCache.Get(ctx, patientID); err != nil {
		u.log.Warnf("Failed to read analysis history cache for %s: %+v", patientID, err)
	} else if found {
		return &dto.AnalysisHistoryResponse{PatientID: patientID, AnalysisHistory: history}, nil
	}

	exists, err := u.patientProfileRepo.Exists(ctx, u.db, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return nil, err
	}
	if !exists {
		return nil, ErrPatientNotFound
	}

	rows, err := u.patientAnalysisRepo.FindHistoryByPatientID(u.db.WithContext(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to load analysis history for %s: %+v", patientID, err)
		return nil, err
	}
	history := converter.AnalysisHistoryRowsToHistory(rows)

	if err := u.historyCache.Set(ctx, patientID, history); err != nil {
		u.log.Warnf("Failed to cache analysis history for %s: %+v", patientID, err)
	}

	return &dto.AnalysisHistoryResponse{PatientID: patientID, AnalysisHistory: history}, nil
}

func (u *analysisUsecase) findVisiblePatientAnalysis(ctx context.Context, id int) (*entity.PatientAnalysis, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	patientAnalysis, err := u.patientAnalysisRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find patient analysis %d: %+v", id, err)
		return nil, err
	}
	if patientAnalysis == nil {
		return nil, ErrPatientAnalysisNotFound
	}
	if !caller.canViewPatient(patientAnalysis.PatientID) {
		return nil, ErrForbidden
	}
	return patientAnalysis, nil
}

func (u *analysisUsecase) requireAdmin(ctx context.Context) (uuid.UUID, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if !caller.IsAdmin() {
		return uuid.Nil, ErrForbidden
	}
	return caller.ID, nil
}

// requireStaff allows doctors and admins.
func (u *analysisUsecase) requireStaff(ctx context.Context) (uuid.UUID, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if !caller.IsAdmin() && !caller.IsDoctor() {
		return uuid.Nil, ErrForbidden
	}
	return caller.ID, nil
}

func (u *analysisUsecase) invalidateHistory(ctx context.Context, patientID uuid.UUID) {
	if err := u.historyCache.Invalidate(ctx, patientID); err != nil {
		u.log.Warnf("Failed to invalidate analysis history cache for %s: %+v", patientID, err)
	}
}
