package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/cv-analyzer/internal/models"
	"alfredoptarigan/cv-analyzer/internal/repositories"
	"alfredoptarigan/cv-analyzer/internal/services"
)

type failingRAG struct{}

func (failingRAG) ProcessDocument(context.Context, services.RAGDocument) error {
	return errors.New("vector store unreachable")
}

func (failingRAG) Query(context.Context, services.RAGDocument, string) (string, error) {
	return "", errors.New("vector store unreachable")
}

func (failingRAG) ComprehensiveAnalysis(context.Context, services.RAGDocument) (*services.ComprehensiveAnalysis, error) {
	return nil, errors.New("vector store unreachable")
}

type failingRunner struct{}

func (failingRunner) Run(context.Context, string, ...string) ([]byte, error) {
	return []byte("soffice: command not found"), errors.New("exit status 127")
}

type recordingWorker struct {
	mu  sync.Mutex
	ids []uint
}

func (w *recordingWorker) Start(context.Context) {}
func (w *recordingWorker) Stop()                 {}

func (w *recordingWorker) EnqueueJob(cvID uint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ids = append(w.ids, cvID)
}

type testServer struct {
	app    *fiber.App
	repo   repositories.CVRepository
	worker *recordingWorker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := repositories.NewMemoryCVRepository()
	persister := services.NewMetadataPersister(repo, 0)
	storage, err := services.NewStorageService(t.TempDir())
	require.NoError(t, err)

	pipeline := services.NewAnalysisPipeline(
		services.NewIntakeValidator(repo),
		services.NewAnalyzerChain(services.NewRAGAnalyzer(failingRAG{}, time.Second), services.NewHeuristicAnalyzer()),
		persister,
	)
	converter := services.NewDocumentConverter(repo, persister, storage,
		services.NewCachedStrategy(),
		services.NewOfficeStrategy(failingRunner{}, services.OfficeOptions{ScratchDir: t.TempDir()}),
		services.NewRenderStrategy(0),
		services.NewEmergencyStrategy(),
	)
	worker := &recordingWorker{}

	router := &Router{
		Analyze: NewAnalyzeHandler(pipeline),
		Convert: NewConvertHandler(converter),
		Upload:  NewUploadHandler(repo, storage, services.NewUploadExtractor(services.NewPDFParserService()), 1024),
		CV:      NewCVHandler(repo, services.NewOptimizerService(repo, persister, nil, 0, 0), worker),
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	router.Register(app)

	return &testServer{app: app, repo: repo, worker: worker}
}

func (s *testServer) seed(t *testing.T, cv models.CVRecord) {
	t.Helper()
	require.NoError(t, s.repo.Create(context.Background(), &cv))
}

func (s *testServer) do(t *testing.T, req *http.Request, userID string) (int, []byte) {
	t.Helper()
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func jsonRequest(method, target string, payload interface{}) *http.Request {
	data, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

const cv42Text = "SKILLS: Python, SQL, Leadership\nEXPERIENCE: ..."

func TestAnalyze_CV42FallsBackToHeuristics(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CVRecord{ID: 42, UserID: 1, FileName: "cv.pdf", RawText: cv42Text, Metadata: `{"pdfBase64":"abc"}`})

	status, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/analyze?fileName=cv.pdf&cvId=42", nil), "1")
	require.Equal(t, fiber.StatusOK, status, string(body))

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Technology", resp.Analysis.Industry)
	assert.Equal(t, "en", resp.Analysis.Language)
	assert.Equal(t, []string{"Python", "SQL", "Leadership"}, resp.Analysis.Skills)
	assert.Equal(t, 57, resp.Analysis.ATSScore)
	assert.Equal(t, models.AnalysisMethodBasic, resp.Analysis.AnalysisMethod)
	assert.NotEmpty(t, resp.Analysis.Strengths)

	stored, err := s.repo.FindByID(context.Background(), 42)
	require.NoError(t, err)
	metadata := services.ParseMetadata(stored.Metadata)
	assert.Equal(t, "abc", metadata[services.MetaPDFBase64])
	assert.Equal(t, "complete", metadata[services.MetaAnalysisStatus])
}

func TestAnalyze_Errors(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CVRecord{ID: 42, UserID: 1, RawText: cv42Text})
	s.seed(t, models.CVRecord{ID: 43, UserID: 1})

	tests := []struct {
		name   string
		target string
		status int
		error  string
	}{
		{"missing cvId", "/api/v1/analyze?fileName=cv.pdf", fiber.StatusBadRequest, "Missing cvId parameter"},
		{"missing fileName", "/api/v1/analyze?cvId=42", fiber.StatusBadRequest, "Missing fileName parameter"},
		{"invalid cvId", "/api/v1/analyze?fileName=cv.pdf&cvId=abc", fiber.StatusBadRequest, "Invalid cvId parameter"},
		{"not found", "/api/v1/analyze?fileName=cv.pdf&cvId=7", fiber.StatusNotFound, "CV not found"},
		{"empty text", "/api/v1/analyze?fileName=cv.docx&cvId=43", fiber.StatusBadRequest,
			"This CV has no extractable text. Only PDF uploads can be analyzed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, httptest.NewRequest(http.MethodGet, tt.target, nil), "1")
			assert.Equal(t, tt.status, status)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.Equal(t, tt.error, resp["error"])
			assert.Equal(t, false, resp["success"])
		})
	}
}

func TestAnalyze_MissingCVIDBody(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/analyze?fileName=cv.pdf", nil), "1")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"Missing cvId parameter","success":false}`, string(body))
}

func TestAnalyze_OtherOwnerForbidden(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CVRecord{ID: 42, UserID: 1, RawText: cv42Text})

	status, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/analyze?fileName=cv.pdf&cvId=42", nil), "2")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.JSONEq(t, `{"error":"You do not have access to this CV","success":false}`, string(body))
}

func TestRequireUser(t *testing.T) {
	s := newTestServer(t)

	for _, user := range []string{"", "0", "alice"} {
		t.Run("user="+user, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze?fileName=cv.pdf&cvId=42", nil)
			if user != "" {
				req.Header.Set(UserIDHeader, user)
			}
			status, body := s.do(t, req, "")
			assert.Equal(t, fiber.StatusUnauthorized, status)
			assert.JSONEq(t, `{"error":"Unauthorized","success":false}`, string(body))
		})
	}

	status, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestConvert_CachedPDF(t *testing.T) {
	s := newTestServer(t)
	cached := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 cached"))
	s.seed(t, models.CVRecord{ID: 8, UserID: 1, Metadata: `{"pdfBase64":"` + cached + `"}`})

	status, body := s.do(t, jsonRequest(http.MethodPost, "/api/v1/convert-to-pdf", map[string]interface{}{"cvId": 8}), "1")
	require.Equal(t, fiber.StatusOK, status, string(body))

	var resp models.ConvertResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, services.StrategyCached, resp.Strategy)
	assert.Equal(t, cached, resp.PDFBase64)
}

func TestConvert_InlineDocxAlwaysReturnsPDF(t *testing.T) {
	s := newTestServer(t)
	payload := map[string]interface{}{"docxBase64": base64.StdEncoding.EncodeToString([]byte("not really a docx"))}

	status, body := s.do(t, jsonRequest(http.MethodPost, "/api/v1/convert-to-pdf", payload), "1")
	require.Equal(t, fiber.StatusOK, status, string(body))

	var resp models.ConvertResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, services.StrategyEmergency, resp.Strategy)

	pdf, err := base64.StdEncoding.DecodeString(resp.PDFBase64)
	require.NoError(t, err)
	assert.True(t, services.IsPDF(pdf))
}

func TestConvert_RendersStoredText(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CVRecord{ID: 9, UserID: 1, RawText: cv42Text})

	status, body := s.do(t, jsonRequest(http.MethodPost, "/api/v1/convert-to-pdf", map[string]interface{}{"cvId": "9"}), "1")
	require.Equal(t, fiber.StatusOK, status, string(body))

	var resp models.ConvertResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, services.StrategyRender, resp.Strategy)

	stored, err := s.repo.FindByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, resp.PDFBase64, services.ParseMetadata(stored.Metadata)[services.MetaPDFBase64])
}

func TestConvert_MissingInput(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, jsonRequest(http.MethodPost, "/api/v1/convert-to-pdf", map[string]interface{}{}), "1")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"Missing cvId or docxBase64 parameter","success":false}`, string(body))
}

func uploadRequest(t *testing.T, fileName string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cvs", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUpload_DocxThenAnalyzeIsRejected(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, uploadRequest(t, "resume.docx", []byte("PK docx bytes")), "5")
	require.Equal(t, fiber.StatusCreated, status, string(body))

	var resp struct {
		Success bool              `json:"success"`
		CV      models.CVResponse `json:"cv"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, services.ContentTypeDocx, resp.CV.ContentType)
	assert.False(t, resp.CV.HasText)
	assert.NotContains(t, resp.CV.Metadata, services.MetaDocxBase64)

	stored, err := s.repo.FindByID(context.Background(), resp.CV.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(5), stored.UserID)
	assert.NotEmpty(t, services.ParseMetadata(stored.Metadata)[services.MetaDocxBase64])

	target := "/api/v1/analyze?fileName=resume.docx&cvId=" + jsonNumber(resp.CV.ID)
	status, _ = s.do(t, httptest.NewRequest(http.MethodGet, target, nil), "5")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestUpload_Rejections(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, uploadRequest(t, "notes.txt", []byte("hello")), "1")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), "Only PDF and DOCX files are accepted")

	status, body = s.do(t, uploadRequest(t, "big.pdf", bytes.Repeat([]byte("a"), 2048)), "1")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), "CV file too large")
}

func TestGetCV_StripsBlobs(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CVRecord{ID: 3, UserID: 1, FileName: "cv.pdf", RawText: cv42Text,
		Metadata: `{"pdfBase64":"abc","docxBase64":"def","industry":"Technology"}`})

	status, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/cvs/3", nil), "1")
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.False(t, strings.Contains(string(body), "abc"))

	var resp struct {
		CV models.CVResponse `json:"cv"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, true, resp.CV.Metadata["hasPdf"])
	assert.Equal(t, "Technology", resp.CV.Metadata["industry"])
	assert.True(t, resp.CV.HasText)

	status, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/cvs/3", nil), "2")
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestOptimize_QueuesJob(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CVRecord{ID: 6, UserID: 1, RawText: cv42Text})

	req := jsonRequest(http.MethodPost, "/api/v1/cvs/6/optimize", map[string]string{"instruction": "Target data roles"})
	status, body := s.do(t, req, "1")
	require.Equal(t, fiber.StatusAccepted, status, string(body))
	assert.JSONEq(t, `{"success":true,"cvId":6,"status":"queued"}`, string(body))

	status, _ = s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/cvs/6/optimize", nil), "1")
	assert.Equal(t, fiber.StatusAccepted, status)

	s.worker.mu.Lock()
	defer s.worker.mu.Unlock()
	assert.Contains(t, s.worker.ids, uint(6))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind services.ErrorKind
		want int
	}{
		{services.KindMissingParameter, fiber.StatusBadRequest},
		{services.KindInvalidIdentifier, fiber.StatusBadRequest},
		{services.KindEmptyContent, fiber.StatusBadRequest},
		{services.KindUnsupportedFile, fiber.StatusBadRequest},
		{services.KindNotFound, fiber.StatusNotFound},
		{services.KindForbidden, fiber.StatusForbidden},
		{services.KindUpstreamUnavailable, fiber.StatusServiceUnavailable},
		{services.KindPersistenceFailure, fiber.StatusInternalServerError},
		{services.KindConversionFailure, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(services.NewPipelineError(tt.kind, "msg", nil)))
		})
	}

	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func jsonNumber(id uint) string {
	data, _ := json.Marshal(id)
	return string(data)
}
