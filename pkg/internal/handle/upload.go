package handle

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"github.com/rshetty-99/marketvault/pkg/internal/service"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
	"github.com/rshetty-99/marketvault/pkg/log"
)

// UploadFile 处理单个文件上传.
//
//	@Summary		上传单个文件
//	@Description	上传文件并登记元数据，按放置策略生成存储键，扣减配额并预签下载 URL
//	@Tags			对象存储
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file				true	"上传的文件"
//	@Param			owner_id	formData	string				true	"所有者 ID"
//	@Param			owner_kind	formData	string				true	"所有者类型 individual/organization/project/public"
//	@Param			file_type	formData	string				true	"命名空间文件类型，如 personal/avatar"
//	@Param			file_name	formData	string				false	"自定义文件名，缺省用上传文件名"
//	@Success		200			{object}	types.UploadResult	"上传结果"
//	@Failure		400			{object}	map[string]string	"请求参数错误"
//	@Failure		507			{object}	map[string]any		"配额超限"
//	@Router			/api/v1/storage/files [post]
func UploadFile(c *gin.Context) {
	l := log.Logger()

	var req types.UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid upload request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		l.Warn().Err(err).Msg("no file provided")
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})

		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	req.UploadedBy = user

	if req.FileName == "" {
		req.FileName = file.Filename
	}

	if req.Size == 0 {
		req.Size = file.Size
	}

	if req.ContentType == "" {
		req.ContentType = file.Header.Get("Content-Type")
	}

	src, err := file.Open()
	if err != nil {
		l.Error().Err(err).Msg("failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process file"})

		return
	}
	defer src.Close()

	svc := service.NewStorageService(c.Request.Context())

	res, err := svc.Upload(c.Request.Context(), req, src)
	if err != nil {
		l.Error().Err(err).Str("owner", req.OwnerID).Str("type", req.FileType).Msg("upload failed")
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, res)
}

// BatchUploadFiles 处理批量文件上传.
//
//	@Summary		批量上传文件
//	@Description	上传多个文件，元数据以 JSON 数组随表单提交，单项失败不影响其它项
//	@Tags			对象存储
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			files		formData	[]file					true	"上传的文件数组"
//	@Param			metadata	formData	string					true	"与文件顺序对应的元数据 JSON 数组"
//	@Success		200			{object}	types.BatchUploadResult	"批量上传结果"
//	@Failure		400			{object}	map[string]string		"请求参数错误"
//	@Router			/api/v1/storage/files/batch [post]
func BatchUploadFiles(c *gin.Context) {
	l := log.Logger()

	form, err := c.MultipartForm()
	if err != nil {
		l.Warn().Err(err).Msg("failed to parse multipart form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})

		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	// 元数据数组与文件按顺序一一对应
	var reqs []types.UploadRequest
	if metaStr := c.PostForm("metadata"); metaStr != "" {
		if err := sonic.Unmarshal([]byte(metaStr), &reqs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid metadata json"})
			return
		}
	}

	if len(reqs) != len(files) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "metadata count does not match file count"})
		return
	}

	items := make([]service.BatchItem, 0, len(files))

	for i, file := range files {
		src, openErr := file.Open()
		if openErr != nil {
			l.Error().Err(openErr).Str("filename", file.Filename).Msg("failed to open file")
			continue
		}
		defer src.Close()

		req := reqs[i]
		req.UploadedBy = user

		if req.FileName == "" {
			req.FileName = file.Filename
		}

		if req.Size == 0 {
			req.Size = file.Size
		}

		items = append(items, service.BatchItem{Req: req, Body: src})
	}

	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid files"})
		return
	}

	svc := service.NewStorageService(c.Request.Context())
	res := svc.BatchUpload(c.Request.Context(), items)

	l.Info().
		Int("succeeded", len(res.Succeeded)).
		Int("failed", len(res.Failed)).
		Int64("total_ms", res.TotalTimeMs).
		Msg("batch upload finished")

	c.JSON(http.StatusOK, res)
}
