package handler

import (
	"arbor/internal/tree/models"
	"arbor/pkg/domain"
)

// MutationResponse wraps the tree state after a successful write.
type MutationResponse struct {
	OK   bool         `json:"ok"`
	Tree *models.Tree `json:"tree"`
}

type HistoryCountResponse struct {
	TreeID domain.TreeID `json:"treeId"`
	Count  int64         `json:"count"`
}

type HistoryListResponse struct {
	TreeID  domain.TreeID           `json:"treeId"`
	Records []*models.HistoryRecord `json:"records"`
}
