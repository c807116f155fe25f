package repository

import (
	"errors"

	"github.com/user/reelverse/internal/model"
	"gorm.io/gorm"
)

// CommentTarget 评论所属对象，EpisodeID 与 ComicID 只设置一个
type CommentTarget struct {
	EpisodeID *uint
	ComicID   *uint
}

func (t CommentTarget) scope(db *gorm.DB) *gorm.DB {
	if t.EpisodeID != nil {
		return db.Where("episode_id = ?", *t.EpisodeID)
	}
	return db.Where("comic_id = ?", *t.ComicID)
}

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("User")
}

// Create 创建评论
func (r *CommentRepository) Create(c *model.Comment) error {
	if err := r.db.Omit("User", "Replies").Create(c).Error; err != nil {
		return err
	}
	return r.db.Scopes(withAuthor).First(c, c.ID).Error
}

// FindByID 根据 ID 查找评论（含作者）
func (r *CommentRepository) FindByID(id uint) (*model.Comment, error) {
	var c model.Comment
	err := r.db.Scopes(withAuthor).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListTopLevel 分页获取顶层评论，最新的在前
func (r *CommentRepository) ListTopLevel(target CommentTarget, limit, offset int) ([]*model.Comment, int64, error) {
	q := r.db.Model(&model.Comment{}).Scopes(target.scope).Where("parent_id IS NULL").Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []*model.Comment
	err := q.Scopes(withAuthor).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	return comments, total, err
}

// Descendants 逐层获取某条评论的所有后代回复
func (r *CommentRepository) Descendants(rootID uint) ([]*model.Comment, error) {
	return r.DescendantsOf([]uint{rootID})
}

// DescendantsOf 逐层获取一组评论的所有后代回复，同层按时间正序
func (r *CommentRepository) DescendantsOf(rootIDs []uint) ([]*model.Comment, error) {
	var all []*model.Comment
	frontier := append([]uint(nil), rootIDs...)
	for len(frontier) > 0 {
		var level []*model.Comment
		if err := r.db.Scopes(withAuthor).
			Where("parent_id IN ?", frontier).
			Order("created_at ASC").
			Order("id ASC").
			Find(&level).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, c := range level {
			frontier = append(frontier, c.ID)
		}
		all = append(all, level...)
	}
	return all, nil
}

// UpdateContent 修改评论内容
func (r *CommentRepository) UpdateContent(id uint, content string) error {
	return r.db.Model(&model.Comment{}).Where("id = ?", id).Update("content", content).Error
}

// DeleteTree 在一个事务中删除评论及其全部后代回复，返回删除条数
func (r *CommentRepository) DeleteTree(id uint) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		n, err := deleteCommentTrees(tx, []uint{id})
		deleted = n
		return err
	})
	return deleted, err
}

// deleteCommentTrees 删除给定评论及其后代，须在事务内调用
func deleteCommentTrees(tx *gorm.DB, roots []uint) (int64, error) {
	if len(roots) == 0 {
		return 0, nil
	}

	ids := append([]uint(nil), roots...)
	frontier := roots
	for len(frontier) > 0 {
		var children []uint
		if err := tx.Model(&model.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return 0, err
		}
		ids = append(ids, children...)
		frontier = children
	}

	res := tx.Where("id IN ?", ids).Delete(&model.Comment{})
	return res.RowsAffected, res.Error
}

// Count 评论总数
func (r *CommentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Comment{}).Count(&count).Error
	return count, err
}
