package e621

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Upload is a post that does not exist on the server yet. Build one with
// NewUploadFromFile or NewUploadFromURL, fill in the describing fields and
// hand it to Client.Upload.
type Upload struct {
	// Tags to apply to the created post.
	Tags []string
	// Sources records where the asset came from.
	Sources []string
	// Rating classifies the post. Required by the service.
	Rating Rating
	// Description is the post's free-text description.
	Description string
	// ParentID optionally links the post to a parent.
	ParentID int

	path      string
	directURL string
}

// NewUploadFromFile prepares an upload from a local file. The file must exist
// at construction time; it is opened again at upload time.
func NewUploadFromFile(path string) (*Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, callerErrorf("cannot upload %q: %v", path, err)
	}
	if info.IsDir() {
		return nil, callerErrorf("cannot upload %q: is a directory", path)
	}
	return &Upload{path: path}, nil
}

// NewUploadFromURL prepares an upload the server fetches itself from a remote
// URL.
func NewUploadFromURL(rawURL string) (*Upload, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, callerErrorf("invalid upload URL %q", rawURL)
	}
	return &Upload{directURL: rawURL}, nil
}

func (u *Upload) form() url.Values {
	form := url.Values{}
	form.Set("upload[tag_string]", strings.Join(u.Tags, " "))
	form.Set("upload[rating]", string(u.Rating))
	if len(u.Sources) > 0 {
		form.Set("upload[source]", strings.Join(u.Sources, "\n"))
	}
	if u.Description != "" {
		form.Set("upload[description]", u.Description)
	}
	if u.ParentID > 0 {
		form.Set("upload[parent_id]", strconv.Itoa(u.ParentID))
	}
	return form
}

// UploadResult is the server's answer to a successful upload.
type UploadResult struct {
	Success  bool   `json:"success"`
	Location string `json:"location"`
	PostID   int    `json:"post_id"`
}

// Upload submits a prepared upload. File-backed uploads go out as multipart
// form data with the file under upload[file]; URL-backed uploads send
// upload[direct_url] and let the server fetch the asset.
func (c *Client) Upload(ctx context.Context, up *Upload) (*UploadResult, error) {
	if up.Rating == "" {
		return nil, callerErrorf("upload requires a rating")
	}

	var body json.RawMessage
	var err error
	if up.path != "" {
		body, err = c.dispatchMultipart(ctx, uploadsPath, up.form(), up.path)
	} else if up.directURL != "" {
		form := up.form()
		form.Set("upload[direct_url]", up.directURL)
		body, err = c.dispatch(ctx, http.MethodPost, uploadsPath, form, nil)
	} else {
		return nil, callerErrorf("upload has neither a file nor a direct URL")
	}
	if err != nil {
		return nil, err
	}

	var result UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}
	return &result, nil
}

// dispatchMultipart performs one throttled multipart POST carrying the given
// form fields plus the file under upload[file].
func (c *Client) dispatchMultipart(ctx context.Context, path string, form url.Values, filePath string) (json.RawMessage, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, callerErrorf("cannot upload %q: %v", filePath, err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		err := streamMultipart(writer, form, filepath.Base(filePath), file)
		writer.Close()
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		// The transport closes the reader once it consumes the body, but a
		// failure before that point (throttle wait, connection setup) would
		// leave the streaming goroutine blocked on the pipe.
		pr.Close()
		return nil, err
	}
	return body, nil
}

func streamMultipart(writer *multipart.Writer, form url.Values, filename string, file io.Reader) error {
	for key, values := range form {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return err
			}
		}
	}
	part, err := writer.CreateFormFile("upload[file]", filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}
