package admin

import (
	"strconv"
	"strings"

	"github.com/h5craft/internal/http/response"
	"github.com/h5craft/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAdminAssets 获取素材列表 (Admin)
func (h *Handler) GetAdminAssets(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.AssetListFilter{
		Page:     page,
		PageSize: pageSize,
		MimeType: strings.TrimSpace(c.Query("mime_type")),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	if raw := strings.TrimSpace(c.Query("uploader_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.UploaderID = uint(parsed)
	}

	assets, total, err := h.AssetRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.asset_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, assets, response.BuildPagination(page, pageSize, total))
}

// GetAdminAsset 获取素材详情 (Admin)
func (h *Handler) GetAdminAsset(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	asset, err := h.AssetRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, response.CodeInternal, "error.asset_fetch_failed", err)
		return
	}
	if asset == nil {
		respondError(c, response.CodeNotFound, "error.asset_not_found", nil)
		return
	}
	response.Success(c, asset)
}

// DeleteAdminAsset 删除素材记录 (Admin)。磁盘文件保留，避免破坏已发布页面引用
func (h *Handler) DeleteAdminAsset(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.AssetRepo.Delete(uint(id)); err != nil {
		respondError(c, response.CodeInternal, "error.asset_delete_failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
