package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// 查询字词：POST /v1/api/dictionary/query，先查字典，未命中再查考点语料
func (h *Handler) QueryDictionary(c *gin.Context) {
	var req struct {
		Word string `json:"word"`
	}
	_ = c.ShouldBindJSON(&req)
	word := strings.TrimSpace(req.Word)
	if word == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少查询词汇"})
		return
	}

	entry, err := h.Corpus.LookupDictionary(word)
	if err != nil {
		h.Log.Error("dictionary lookup failed", "word", word, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询失败"})
		return
	}
	if entry != nil {
		c.JSON(http.StatusOK, gin.H{
			"word":        entry.Word,
			"explanation": entry.Explanation,
		})
		return
	}

	kd, err := h.Corpus.LookupKaodian(word)
	if err != nil {
		h.Log.Error("kaodian lookup failed", "word", word, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询失败"})
		return
	}
	if kd != nil {
		c.JSON(http.StatusOK, gin.H{
			"word":        kd.Word,
			"explanation": kd.Meaning,
			"source":      kd.Source,
			"sentence":    kd.Sentence,
		})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "未找到词条"})
}
