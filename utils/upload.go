package utils

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/DinieMobo/TaskHero/models"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// Uploader stores a file with the hosting provider and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// CloudinaryUploader performs unsigned uploads against a Cloudinary cloud.
type CloudinaryUploader struct {
	client    *resty.Client
	breaker   *gobreaker.CircuitBreaker
	cloudName string
	preset    string
}

func NewCloudinaryUploader(baseURL, cloudName, preset string) *CloudinaryUploader {
	return &CloudinaryUploader{
		client:    resty.New().SetBaseURL(baseURL).SetTimeout(60 * time.Second),
		breaker:   NewBreaker("CloudinaryUploadCB"),
		cloudName: cloudName,
		preset:    preset,
	}
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
}

type cloudinaryError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *CloudinaryUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if u.cloudName == "" {
		return "", models.UpstreamError("File upload is not configured", nil)
	}
	result, err := u.breaker.Execute(func() (interface{}, error) {
		var out cloudinaryResponse
		var apiErr cloudinaryError
		resp, err := u.client.R().
			SetContext(ctx).
			SetFileReader("file", filename, r).
			SetFormData(map[string]string{"upload_preset": u.preset}).
			SetResult(&out).
			SetError(&apiErr).
			Post(fmt.Sprintf("/v1_1/%s/upload", u.cloudName))
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("cloudinary returned %d: %s", resp.StatusCode(), apiErr.Error.Message)
		}
		if out.SecureURL == "" {
			return nil, fmt.Errorf("cloudinary response has no secure_url")
		}
		return out.SecureURL, nil
	})
	if err != nil {
		return "", models.UpstreamError("Failed to upload file", err)
	}
	return result.(string), nil
}

var _ Uploader = (*CloudinaryUploader)(nil)
