package aicore

import (
	"encoding/json"
	"time"

	"github.com/clinlabel/labelstation/internal/detection"
)

// ImageRecord is one row of the paginated result-image listing. The
// backend owns these; the workstation treats them as read-mostly.
type ImageRecord struct {
	ImageID          string `json:"image_id"`
	FileName         string `json:"file_name"`
	OriginalImageURL string `json:"original_image_url"`
	UploadedByName   string `json:"uploaded_by_name"`
	UploadedAt       string `json:"uploaded_at"`
	CurrentStatus    string `json:"current_status"`
	HasAIReference   bool   `json:"has_ai_reference"`
	LabeledByName    string `json:"labeled_by_name,omitempty"`
	ApprovedByName   string `json:"approved_by_name,omitempty"`
}

type ListMeta struct {
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

type ImageList struct {
	Items []ImageRecord `json:"items"`
	Meta  ListMeta      `json:"meta"`
}

type ImageInfo struct {
	ImageID          string `json:"image_id"`
	FileName         string `json:"file_name"`
	OriginalImageURL string `json:"original_image_url"`
	UploadedByName   string `json:"uploaded_by_name"`
	UploadedAt       string `json:"uploaded_at"`
}

// AnnotationRecord is one versioned human submission. AnnotationData
// stays raw here: the history model decodes it lazily, and the overlay
// renderer runs it through the normalizer untouched.
type AnnotationRecord struct {
	AnnotationID      string          `json:"annotation_id"`
	LabeledByName     string          `json:"labeled_by_name"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	DeprecationReason string          `json:"deprecation_reason,omitempty"`
	AnnotationData    json.RawMessage `json:"annotation_data"`
}

type AIReference struct {
	Model string          `json:"model"`
	Data  json.RawMessage `json:"data"`
}

type ImageDetail struct {
	ImageInfo         ImageInfo          `json:"image_info"`
	AnnotationHistory []AnnotationRecord `json:"annotation_history"`
	AIReference       *AIReference       `json:"ai_reference,omitempty"`
}

type SaveAnnotationRequest struct {
	AnnotationData   []detection.WireDetection `json:"annotation_data"`
	LabeledBy        string                    `json:"labeled_by"`
	AnnotationStatus string                    `json:"annotation_status"`
}

type ApproveRequest struct {
	ApprovedBy string `json:"approved_by"`
}

type RejectRequest struct {
	RejectedBy string `json:"rejected_by"`
	Reason     string `json:"reason"`
}

type DeprecateRequest struct {
	Reason string `json:"reason"`
}
