package tracker

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mmjira/core"
	"mmjira/models"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadAttachment sends a local file as multipart/form-data. Missing files
// fail before any request is made.
func (c *Client) UploadAttachment(ctx context.Context, issueKey, filePath string) ([]models.AttachmentResponse, error) {
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		return nil, &core.FileNotFoundError{Path: filePath}
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment %s: %w", filePath, err)
	}

	fileName := filepath.Base(filePath)
	body, contentType, err := buildMultipartBody(fileName, data)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, outboundRequest{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/rest/api/2/issue/%s/attachments", url.PathEscape(issueKey)),
		body:        body,
		logBody:     fmt.Sprintf("[multipart upload: %s, %d bytes]", fileName, len(data)),
		contentType: contentType,
		headers:     map[string]string{"X-Atlassian-Token": "no-check"},
		timeout:     c.opts.UploadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload attachment %s to %s: %w", fileName, issueKey, err)
	}

	return decode[[]models.AttachmentResponse](raw, "attachment response")
}

func buildMultipartBody(fileName string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.SetBoundary(newBoundary()); err != nil {
		return nil, "", fmt.Errorf("failed to set multipart boundary: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(fileName)))
	header.Set("Content-Type", detectContentType(fileName, data))

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write multipart part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

func newBoundary() string {
	return "----MMJiraFormBoundary" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func detectContentType(fileName string, data []byte) string {
	if byExt := mime.TypeByExtension(filepath.Ext(fileName)); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}
