package server

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/moonworks/beacon/internal/assets"
	"github.com/moonworks/beacon/internal/auth"
	"github.com/moonworks/beacon/internal/transcode"
	"go.uber.org/zap"
)

const (
	sessionContextKey = "beacon_session"

	// Declared dependency hashes ride an upload as a comma-separated header
	// rather than a multipart field, keeping the body the raw payload.
	dependencyHeader = "X-Asset-Dependencies"

	maxUploadBytes = 16 << 20
)

var (
	errMissingTokenValidator = errors.New("token validator dependency required")
	errMissingCatalog        = errors.New("asset catalog dependency required")
	errMissingClassifier     = errors.New("classifier dependency required")
	errMissingTranscoder     = errors.New("transcoder dependency required")
	errMissingStore          = errors.New("content store dependency required")
	errMissingUploaders      = errors.New("uploader service dependency required")
	errInvalidAuthorization  = errors.New("authorization header missing or invalid")
)

// TokenValidator checks session tokens minted by the auth service.
type TokenValidator interface {
	ValidateToken(token string) (auth.SessionClaims, error)
}

// UploaderResolver maps platform login subjects to canonical uploader ids.
type UploaderResolver interface {
	ResolveCanonicalUploaderID(platform, subject string) (string, error)
}

// ContentStore is the byte-level surface the handlers read and write.
type ContentStore interface {
	Exists(key string) bool
	Get(key string) ([]byte, error)
	GetStream(key string) (io.ReadCloser, error)
	Put(key string, data []byte) error
}

// Dependencies wires the router's collaborators.
type Dependencies struct {
	TokenValidator TokenValidator
	Uploaders      UploaderResolver
	Catalog        *assets.Catalog
	Classifier     *assets.Classifier
	Transcoder     *transcode.Transcoder
	Store          ContentStore
	Logger         *zap.Logger
}

// NewHTTPHandler builds the gin router for the asset API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenValidator == nil {
		return nil, errMissingTokenValidator
	}
	if deps.Uploaders == nil {
		return nil, errMissingUploaders
	}
	if deps.Catalog == nil {
		return nil, errMissingCatalog
	}
	if deps.Classifier == nil {
		return nil, errMissingClassifier
	}
	if deps.Transcoder == nil {
		return nil, errMissingTranscoder
	}
	if deps.Store == nil {
		return nil, errMissingStore
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", dependencyHeader},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:     deps.TokenValidator,
		uploaders:  deps.Uploaders,
		catalog:    deps.Catalog,
		classifier: deps.Classifier,
		transcoder: deps.Transcoder,
		store:      deps.Store,
		logger:     logger,
	}

	router.GET("/healthz", handler.handleHealth)

	api := router.Group("/api")
	api.Use(handler.authorizeRequest)
	api.POST("/assets", handler.handleUpload)
	api.GET("/assets/:hash", handler.handleGetAsset)
	api.GET("/assets/:hash/data", handler.handleGetData)
	api.GET("/assets/:hash/icon", handler.handleGetIcon)
	api.GET("/assets/:hash/photo", handler.handleGetPhoto)

	return router, nil
}

type httpHandler struct {
	tokens     TokenValidator
	uploaders  UploaderResolver
	catalog    *assets.Catalog
	classifier *assets.Classifier
	transcoder *transcode.Transcoder
	store      ContentStore
	logger     *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	claims, err := h.tokens.ValidateToken(strings.TrimSpace(token))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(sessionContextKey, claims)
	c.Next()
}

func sessionFromContext(c *gin.Context) (auth.SessionClaims, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return auth.SessionClaims{}, false
	}
	claims, ok := value.(auth.SessionClaims)
	return claims, ok
}

type assetResponse struct {
	Hash             string   `json:"hash"`
	Type             string   `json:"type"`
	Flags            string   `json:"flags"`
	TreeFlags        string   `json:"tree_flags"`
	SizeBytes        int64    `json:"size_bytes"`
	UploaderID       *string  `json:"uploader_id,omitempty"`
	OriginPlatform   string   `json:"origin_platform"`
	Dependencies     []string `json:"dependencies"`
	UploadedAtSecond int64    `json:"uploaded_at_s"`
}

func (h *httpHandler) handleUpload(c *gin.Context) {
	claims, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes+1))
	if err != nil || len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty_payload"})
		return
	}
	if len(payload) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload_too_large"})
		return
	}

	originPlatform, err := assets.ParsePlatform(claims.Platform)
	if err != nil {
		originPlatform = assets.PlatformMainline
	}

	assetType, format := sniffAsset(payload)
	digest := sha1.Sum(payload)
	hash := hex.EncodeToString(digest[:])

	flags := assets.Classify(assetType, format, false)
	if flags.Has(assets.FlagDangerous) {
		h.logger.Warn("dangerous upload rejected",
			zap.String("hash", hash),
			zap.String("type", assetType.String()),
			zap.String("uploader_subject", claims.Subject))
		c.JSON(http.StatusForbidden, gin.H{"error": "asset_rejected"})
		return
	}

	uploaderID, err := h.uploaders.ResolveCanonicalUploaderID(claims.Platform, claims.Subject)
	if err != nil {
		h.logger.Error("uploader resolution failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "uploader_resolution_failed"})
		return
	}

	dependencies := parseDependencyHeader(c.GetHeader(dependencyHeader))
	storeKey := originPlatform.StoreKeyPrefix() + hash
	if err := h.store.Put(storeKey, payload); err != nil {
		h.logger.Error("blob write failed", zap.Error(err), zap.String("hash", hash))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store_write_failed"})
		return
	}

	record, err := h.catalog.CreateAsset(c.Request.Context(), assets.CreateRequest{
		Hash:             hash,
		Type:             assetType,
		Format:           format,
		UploaderID:       &uploaderID,
		SizeBytes:        int64(len(payload)),
		OriginPlatform:   originPlatform,
		DependencyHashes: dependencies,
	})
	if errors.Is(err, assets.ErrAssetExists) {
		c.JSON(http.StatusOK, gin.H{"hash": hash, "status": "already_exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog_insert_failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"hash":   record.Hash,
		"type":   record.Type.String(),
		"status": "created",
	})
}

func (h *httpHandler) handleGetAsset(c *gin.Context) {
	record, ok := h.lookupAsset(c)
	if !ok {
		return
	}

	treeFlags, err := assets.TreeFlags(c.Request.Context(), h.catalog, h.classifier, record)
	if err != nil {
		h.logger.Error("dependency walk failed", zap.Error(err), zap.String("hash", record.Hash))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dependency_walk_failed"})
		return
	}
	dependencies, err := h.catalog.GetDependencyHashes(c.Request.Context(), record.Hash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dependency_query_failed"})
		return
	}

	c.JSON(http.StatusOK, assetResponse{
		Hash:             record.Hash,
		Type:             record.Type.String(),
		Flags:            h.classifier.Flags(record).String(),
		TreeFlags:        treeFlags.String(),
		SizeBytes:        record.SizeBytes,
		UploaderID:       record.UploaderID,
		OriginPlatform:   record.OriginPlatform.String(),
		Dependencies:     dependencies,
		UploadedAtSecond: record.UploadedAtSecond,
	})
}

func (h *httpHandler) handleGetData(c *gin.Context) {
	record, ok := h.lookupAsset(c)
	if !ok {
		return
	}
	stream, err := h.store.GetStream(record.StoreKey())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "blob_missing"})
		return
	}
	defer stream.Close()
	c.DataFromReader(http.StatusOK, record.SizeBytes, "application/octet-stream", stream, nil)
}

func (h *httpHandler) handleGetIcon(c *gin.Context) {
	h.serveConversion(c, h.transcoder.ToPlatformIcon)
}

func (h *httpHandler) handleGetPhoto(c *gin.Context) {
	h.serveConversion(c, h.transcoder.ToPlatformPhoto)
}

type conversionFunc func(ctx context.Context, record *assets.AssetRecord, target assets.Platform) (string, error)

func (h *httpHandler) serveConversion(c *gin.Context, convert conversionFunc) {
	record, ok := h.lookupAsset(c)
	if !ok {
		return
	}
	target, err := assets.ParsePlatform(c.DefaultQuery("platform", "mainline"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_platform"})
		return
	}

	servedKey := record.StoreKey()
	convertedHash, err := convert(c.Request.Context(), record, target)
	switch {
	case err == nil:
		servedKey = convertedHash
		if target.Family() == assets.FamilyHandheld {
			servedKey = assets.PlatformPSP.StoreKeyPrefix() + convertedHash
		}
		if convertedHash == record.Hash {
			servedKey = record.StoreKey()
		}
	case errors.Is(err, transcode.ErrUnsupportedConversion), errors.Is(err, transcode.ErrDecodeFailed):
		// Soft failure: serve the unconverted payload rather than erroring.
		h.logger.Warn("conversion degraded to source payload",
			zap.Error(err),
			zap.String("hash", record.Hash),
			zap.String("platform", target.String()))
	default:
		h.logger.Error("conversion failed", zap.Error(err), zap.String("hash", record.Hash))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "conversion_failed"})
		return
	}

	data, err := h.store.Get(servedKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "blob_missing"})
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (h *httpHandler) lookupAsset(c *gin.Context) (*assets.AssetRecord, bool) {
	record, err := h.catalog.GetAssetByHash(c.Request.Context(), c.Param("hash"))
	if err != nil {
		if errors.Is(err, assets.ErrInvalidAssetHash) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_hash"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog_query_failed"})
		return nil, false
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "asset_not_found"})
		return nil, false
	}
	return record, true
}

func parseDependencyHeader(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	hashes := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			hashes = append(hashes, trimmed)
		}
	}
	return hashes
}

// sniffAsset resolves type and serialization format at the upload boundary:
// the magic table first, then payload signatures for the tagless image
// containers.
func sniffAsset(payload []byte) (assets.AssetType, assets.SerializationFormat) {
	if assetType, ok := assets.IdentifyByMagic(payload); ok {
		format := assets.FormatUnknown
		if len(payload) >= 4 {
			format = assets.ParseSerializationFormat(payload[3])
		}
		return assetType, format
	}
	switch {
	case bytes.HasPrefix(payload, []byte{0x89, 'P', 'N', 'G'}):
		return assets.TypePng, assets.FormatBinary
	case bytes.HasPrefix(payload, []byte{0xff, 0xd8, 0xff}):
		return assets.TypeJpeg, assets.FormatBinary
	case looksLikeTGA(payload):
		return assets.TypeTga, assets.FormatBinary
	default:
		return assets.TypeUnknown, assets.FormatUnknown
	}
}

// looksLikeTGA applies the loose header heuristic the clients use: no color
// map, a true-color image type, and a sane bit depth. TGA has no magic, so
// this is the best available signal.
func looksLikeTGA(payload []byte) bool {
	if len(payload) < 18 {
		return false
	}
	colorMapType := payload[1]
	imageType := payload[2]
	depth := payload[16]
	return colorMapType == 0 &&
		(imageType == 2 || imageType == 10) &&
		(depth == 24 || depth == 32)
}
