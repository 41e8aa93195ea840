package rest

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schemaforge/backend/internal/application/services"
	"github.com/schemaforge/backend/internal/domain/prompt"
	"github.com/schemaforge/backend/pkg/errors"
)

// Uploads are schema descriptions, not data dumps
const maxUploadBytes = 10 << 20

type GenerateHandler struct {
	svcMgr *services.ServiceManager
}

func NewGenerateHandler(svcMgr *services.ServiceManager) *GenerateHandler {
	return &GenerateHandler{svcMgr: svcMgr}
}

// Generate handles POST /api/generate. Multipart form fields:
//   - sources: one or more source schema files (csv or xlsx)
//   - target: exactly one target schema file
//   - join_keys: optional join-key file
//   - unmapped_policy: null | no_value | custom
//   - custom_value: literal for the custom policy, at most 10 characters
func (h *GenerateHandler) Generate(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondAppError(c, errors.NewValidationError("form", err.Error()))
		return
	}

	policy, err := prompt.ParsePolicy(c.PostForm("unmapped_policy"), c.PostForm("custom_value"))
	if err != nil {
		RespondAppError(c, err)
		return
	}

	req := services.GenerateRequest{Policy: policy}

	for _, fh := range form.File["sources"] {
		file, err := readUpload(fh)
		if err != nil {
			RespondAppError(c, err)
			return
		}
		req.Sources = append(req.Sources, *file)
	}

	targets := form.File["target"]
	if len(targets) != 1 {
		RespondAppError(c, errors.NewValidationError("target", "exactly one target schema file is required"))
		return
	}
	target, err := readUpload(targets[0])
	if err != nil {
		RespondAppError(c, err)
		return
	}
	req.Target = *target

	if joinKeys := form.File["join_keys"]; len(joinKeys) > 0 {
		jk, err := readUpload(joinKeys[0])
		if err != nil {
			RespondAppError(c, err)
			return
		}
		req.JoinKeys = jk
	}

	result, err := h.svcMgr.Generation.Generate(c.Request.Context(), *user, req)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"sql":   result.SQL,
		"model": result.Model,
	})
}

// readUpload pulls one uploaded file fully into memory. Inputs live only for
// the duration of the request.
func readUpload(fh *multipart.FileHeader) (*services.UploadedFile, error) {
	if fh.Size > maxUploadBytes {
		return nil, errors.NewValidationError(fh.Filename, "file exceeds the upload size limit")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.NewInvalidFormatError(fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, errors.NewInvalidFormatError(fh.Filename, err)
	}
	if len(data) > maxUploadBytes {
		return nil, errors.NewValidationError(fh.Filename, "file exceeds the upload size limit")
	}

	return &services.UploadedFile{Name: fh.Filename, Data: data}, nil
}
