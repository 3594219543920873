package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/astrotechlabs/astrotech-api/internal/common"
	sc "github.com/astrotechlabs/astrotech-api/internal/server/config"
	"github.com/astrotechlabs/astrotech-api/internal/server/models"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ReportRequest carries the inputs the external report pipeline needs.
type ReportRequest struct {
	BirthDate  string  `json:"birth_date"`
	BirthTime  string  `json:"birth_time"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Timezone   string  `json:"timezone"`
	TargetYear int     `json:"target_year"`
	ClientName string  `json:"client_name"`
}

// ReportService fetches a generated PDF from the external report pipeline,
// stores it in the object store, and hands back a time-limited download URL.
// The pipeline itself is an opaque collaborator.
type ReportService struct {
	config *sc.Config
	client *http.Client
}

func NewReportService(cfg *sc.Config) *ReportService {
	return &ReportService{
		config: cfg,
		client: &http.Client{Timeout: cfg.ReportTimeout},
	}
}

func reportStorageKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("reports/%d/%d/%d/%s/%v.pdf", d.Year(), d.Month(), d.Day(), userID, uuid.New())
}

func (s *ReportService) getClients() (*s3.Client, *s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, newS3PresignClient(client), nil
}

func (s *ReportService) fetchPDF(ctx context.Context, req ReportRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.ReportServiceURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("report pipeline returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// GenerateReport runs the full flow: pipeline fetch, object-store upload,
// presigned GET (15 minutes) for the caller to download.
func (s *ReportService) GenerateReport(ctx context.Context, user *models.User, req ReportRequest) (string, error) {

	if req.BirthDate == "" || req.Timezone == "" || req.ClientName == "" {
		return "", common.ErrInvalidReportRequest
	}

	pdf, err := s.fetchPDF(ctx, req)
	if err != nil {
		return "", fmt.Errorf("error generating report: %w", err)
	}
	if len(pdf) == 0 {
		return "", fmt.Errorf("report pipeline returned an empty document")
	}

	client, presignClient, err := s.getClients()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := reportStorageKey(user.ID)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(pdf),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("error storing report: %w", err)
	}

	req2, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("error presigning report url: %w", err)
	}

	return req2.URL, nil
}
