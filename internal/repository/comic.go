package repository

import (
	"errors"
	"time"

	"github.com/user/reelverse/internal/model"
	"gorm.io/gorm"
)

type ComicRepository struct {
	db *gorm.DB
}

func NewComicRepository(db *gorm.DB) *ComicRepository {
	return &ComicRepository{db: db}
}

// List 分页查询漫画
func (r *ComicRepository) List(query, genre string, limit, offset int) ([]*model.Comic, int64, error) {
	q := r.db.Model(&model.Comic{})
	if query != "" {
		like := containsPattern(query)
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(author) LIKE ? ESCAPE '\'`, like, like)
	}
	if genre != "" {
		q = genreMatch(q, genre)
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comics []*model.Comic
	err := q.Order("updated_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&comics).Error
	return comics, total, err
}

// FindByID 根据 ID 查找漫画
func (r *ComicRepository) FindByID(id uint) (*model.Comic, error) {
	var comic model.Comic
	err := r.db.First(&comic, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comic, nil
}

// FindWithPages 查找漫画及全部页面（按章节、页码排序）
func (r *ComicRepository) FindWithPages(id uint) (*model.Comic, error) {
	var comic model.Comic
	err := r.db.Preload("Pages", func(db *gorm.DB) *gorm.DB {
		return db.Order("chapter ASC").Order("number ASC")
	}).First(&comic, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comic, nil
}

// Create 创建漫画
func (r *ComicRepository) Create(comic *model.Comic) error {
	return r.db.Omit("Pages").Create(comic).Error
}

// Update 更新漫画信息
func (r *ComicRepository) Update(comic *model.Comic) error {
	return r.db.Model(comic).
		Select("title", "slug", "author", "description", "genres", "cover_url", "thumbnail_url", "status").
		Updates(comic).Error
}

// Delete 删除漫画及其页面、评论
func (r *ComicRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comic_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comic_id = ?", id).Delete(&model.ComicPage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Comic{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// LastPageNumber 章节当前最大页码，没有页面时为 0
func (r *ComicRepository) LastPageNumber(comicID uint, chapter int) (int, error) {
	var last int
	err := r.db.Model(&model.ComicPage{}).
		Where("comic_id = ? AND chapter = ?", comicID, chapter).
		Select("COALESCE(MAX(number), 0)").
		Scan(&last).Error
	return last, err
}

// AddPages 批量添加页面
func (r *ComicRepository) AddPages(pages []*model.ComicPage) error {
	if len(pages) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&pages).Error; err != nil {
			return err
		}
		return tx.Model(&model.Comic{}).Where("id = ?", pages[0].ComicID).Update("updated_at", time.Now()).Error
	})
}

// FindPage 查找漫画下的某一页
func (r *ComicRepository) FindPage(comicID, pageID uint) (*model.ComicPage, error) {
	var page model.ComicPage
	err := r.db.Where("comic_id = ? AND id = ?", comicID, pageID).First(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// DeletePage 删除页面
func (r *ComicRepository) DeletePage(pageID uint) error {
	return r.db.Delete(&model.ComicPage{}, pageID).Error
}

// Count 漫画总数
func (r *ComicRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Comic{}).Count(&count).Error
	return count, err
}
