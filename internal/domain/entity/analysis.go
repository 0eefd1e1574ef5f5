package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Analysis is a catalog entry for a clinical test (blood panel, imaging, ...)
type Analysis struct {
	ID          int             `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code" yaml:"code"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name" yaml:"name"`
	Description string          `gorm:"type:text" json:"description,omitempty" yaml:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price" yaml:"price"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at" yaml:"-"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at" yaml:"-"`
}

func (Analysis) TableName() string {
	return "analyses"
}

type PatientAnalysisStatus string

const (
	PatientAnalysisStatusPending   PatientAnalysisStatus = "pending"
	PatientAnalysisStatusCompleted PatientAnalysisStatus = "completed"
)

// PatientAnalysis is an analysis ordered for a patient on a given date.
// Its ID is the patient_analysis_id exposed in the analysis history.
type PatientAnalysis struct {
	ID            int                   `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID     uuid.UUID             `gorm:"type:uuid;not null;index" json:"patient_id"`
	AnalysisID    int                   `gorm:"not null;index" json:"analysis_id"`
	AppointmentID *uuid.UUID            `gorm:"type:uuid;index" json:"appointment_id,omitempty"`
	OrderedBy     uuid.UUID             `gorm:"type:uuid;not null" json:"ordered_by"`
	AnalysisDate  time.Time             `gorm:"type:date;not null;index" json:"analysis_date"`
	Status        PatientAnalysisStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time             `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Analysis Analysis        `gorm:"foreignKey:AnalysisID" json:"analysis,omitempty"`
	Result   *AnalysisResult `gorm:"foreignKey:PatientAnalysisID" json:"result,omitempty"`
}

func (PatientAnalysis) TableName() string {
	return "patient_analyses"
}

func (p *PatientAnalysis) IsCompleted() bool {
	return p.Status == PatientAnalysisStatusCompleted
}

// AnalysisResult holds the stored report location and the clinician's reading.
// Path is either an object key in result storage or an external reference.
type AnalysisResult struct {
	ID                int       `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientAnalysisID int       `gorm:"not null;uniqueIndex" json:"patient_analysis_id"`
	Path              string    `gorm:"type:text;not null" json:"path"`
	Interpretation    string    `gorm:"type:text" json:"interpretation"`
	RecordedBy        uuid.UUID `gorm:"type:uuid;not null" json:"recorded_by"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AnalysisResult) TableName() string {
	return "analysis_results"
}

// AnalysisHistory is the read projection of a patient's analyses.
// Every field is always present; pending analyses carry empty result values.
type AnalysisHistory struct {
	Analysis          AnalysisHistoryAnalysis `json:"analysis"`
	Results           AnalysisHistoryResults  `json:"results"`
	PatientAnalysisID int                     `json:"patient_analysis_id"`
	AnalysisDate      Date                    `json:"analysis_date"`
}

type AnalysisHistoryAnalysis struct {
	Name string `json:"name"`
}

type AnalysisHistoryResults struct {
	Path           string `json:"path"`
	Interpretation string `json:"interpretation"`
}

// AnalysisHistoryRow is the flat row scanned from the history query.
type AnalysisHistoryRow struct {
	PatientAnalysisID int
	AnalysisDate      time.Time
	AnalysisName      string
	ResultPath        *string
	Interpretation    *string
}

// ToHistory folds a flat row into the nested projection.
func (r AnalysisHistoryRow) ToHistory() AnalysisHistory {
	h := AnalysisHistory{
		Analysis:          AnalysisHistoryAnalysis{Name: r.AnalysisName},
		PatientAnalysisID: r.PatientAnalysisID,
		AnalysisDate:      DateOf(r.AnalysisDate),
	}
	if r.ResultPath != nil {
		h.Results.Path = *r.ResultPath
	}
	if r.Interpretation != nil {
		h.Results.Interpretation = *r.Interpretation
	}
	return h
}
