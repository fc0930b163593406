package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/osvaldoandrade/scanq/internal/services"
	"github.com/osvaldoandrade/scanq/pkg/domain"

	"github.com/gin-gonic/gin"
)

const bytesPerMB = int64(1_000_000)

type submitController struct {
	svc           services.IntakeService
	maxFileSizeMB int
}

func NewSubmitController(svc services.IntakeService, maxFileSizeMB int) *submitController {
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = 100
	}
	return &submitController{svc: svc, maxFileSizeMB: maxFileSizeMB}
}

// Handle accepts one multipart submission: field `file` plus the optional
// `workersDisabled` (comma-separated), `password` and `validity` (seconds)
// fields. Rejections answer 400 with the submitter-facing message; storage
// or queue trouble stays a generic 500.
func (h *submitController) Handle(c *gin.Context) {
	// Hard cap on the request body; the exact size rule lives in the service.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, (int64(h.maxFileSizeMB)+10)*bytesPerMB)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusBadRequest, domain.SubmitResult{Success: false, Error: "file is too big (max " + strconv.Itoa(h.maxFileSizeMB) + " MB)"})
			return
		}
		c.JSON(http.StatusBadRequest, domain.SubmitResult{Success: false, Error: "missing file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.SubmitResult{Success: false, Error: "unreadable file"})
		return
	}

	var disabled []string
	if raw := strings.TrimSpace(c.PostForm("workersDisabled")); raw != "" {
		for _, n := range strings.Split(raw, ",") {
			if n = strings.TrimSpace(n); n != "" {
				disabled = append(disabled, n)
			}
		}
	}

	var validity int64
	if raw := strings.TrimSpace(c.PostForm("validity")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, domain.SubmitResult{Success: false, Error: "invalid 'validity' (seconds)"})
			return
		}
		validity = v
	}

	out, err := h.svc.Submit(c.Request.Context(), services.SubmitRequest{
		Filename:        header.Filename,
		Data:            data,
		DisabledWorkers: disabled,
		Password:        c.PostForm("password"),
		ValiditySeconds: validity,
	})
	if err != nil {
		var rej *services.Rejection
		if errors.As(err, &rej) {
			c.JSON(http.StatusBadRequest, domain.SubmitResult{Success: false, Error: rej.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, domain.SubmitResult{Success: false, Error: "internal error"})
		return
	}

	c.JSON(http.StatusAccepted, domain.SubmitResult{
		Success:  true,
		TaskID:   out.Task.ID,
		Link:     out.Link,
		Seed:     out.Seed,
		Lifetime: out.Lifetime,
	})
}
