package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/disha/internal/domain/aid"
	"github.com/yanqian/disha/internal/domain/report"
	"github.com/yanqian/disha/internal/infra/backend"
	apperrors "github.com/yanqian/disha/pkg/errors"
)

// MoneyDonation forwards a money donation for the signed-in user.
func (h *Handler) MoneyDonation(c *gin.Context) {
	var req aid.MoneyDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.aidSvc.MoneyDonation(c.Request.Context(), sessionID(c), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// BloodDonation forwards a blood donation for the signed-in user.
func (h *Handler) BloodDonation(c *gin.Context) {
	var req aid.BloodDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.aidSvc.BloodDonation(c.Request.Context(), sessionID(c), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Volunteer registers a volunteer. No session is needed.
func (h *Handler) Volunteer(c *gin.Context) {
	h.limitBody(c, h.uploads.MaxAvatarBytes)
	avatar, err := readUpload(c, h.uploads.MaxAvatarBytes, "avatar")
	if err != nil {
		h.uploadFailed(c, err)
		return
	}
	req := aid.VolunteerRequest{
		FullName:       c.PostForm("fullName"),
		ContactDetails: c.PostForm("contactDetails"),
		Address:        c.PostForm("address"),
		City:           c.PostForm("city"),
		State:          c.PostForm("state"),
		Avatar:         avatar,
	}
	resp, err := h.aidSvc.Volunteer(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Report uploads an incident report with one image or video.
func (h *Handler) Report(c *gin.Context) {
	limit := max(h.uploads.MaxImageBytes, h.uploads.MaxVideoBytes)
	h.limitBody(c, limit)
	file, err := readUpload(c, limit, "file", "imageFile", "videoFile")
	if err != nil {
		h.uploadFailed(c, err)
		return
	}
	req := report.Request{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Location:    c.PostForm("location"),
		File:        file,
	}
	resp, err := h.reportSvc.Submit(c.Request.Context(), sessionID(c), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Submissions lists the caller's tracked submissions.
func (h *Handler) Submissions(c *gin.Context) {
	resp, err := h.submissionSvc.List(c.Request.Context(), sessionID(c))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// limitBody caps the request at twice the file limit so slightly oversized
// files still reach validation and get a specific message.
func (h *Handler) limitBody(c *gin.Context, fileLimit int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*fileLimit+(1<<20))
}

func (h *Handler) uploadFailed(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abortWithError(c, NewHTTPError(http.StatusRequestEntityTooLarge, apperrors.CodeInvalidInput, "upload is too large", err))
		return
	}
	badRequest(c, err)
}

// readUpload reads the first present file field, at most limit+1 bytes so the
// domain can reject oversized files. A missing file returns nil.
func readUpload(c *gin.Context, limit int64, fields ...string) (*backend.FilePart, error) {
	for _, field := range fields {
		fh, err := c.FormFile(field)
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload: %w", err)
		}
		data, err := io.ReadAll(io.LimitReader(f, limit+1))
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return &backend.FilePart{
			FieldName:   field,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		}, nil
	}
	return nil, nil
}
