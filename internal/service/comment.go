package service

import (
	"context"
	"unicode/utf8"

	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/utils"
)

// MaxCommentLength 评论最大字符数
const MaxCommentLength = 2000

// CommentService 评论服务
type CommentService struct {
	repos        *repository.Repositories
	gamification *GamificationService
}

func NewCommentService(repos *repository.Repositories, gamification *GamificationService) *CommentService {
	return &CommentService{repos: repos, gamification: gamification}
}

// Actor 发起操作的用户
type Actor struct {
	UserID uint
	Roles  []string
}

// IsModerator 是否可以管理他人内容
func (a Actor) IsModerator() bool {
	for _, r := range a.Roles {
		if r == model.RoleAdmin || r == model.RoleModerator {
			return true
		}
	}
	return false
}

// CommentPage 一页顶层评论
type CommentPage struct {
	Items []*model.Comment
	Total int64
}

// cleanContent 转为纯文本并校验长度
func cleanContent(raw string) (string, error) {
	content := utils.PlainText(raw)
	n := utf8.RuneCountInString(content)
	if n == 0 {
		return "", utils.NewError(utils.ErrInvalid, "评论内容不能为空")
	}
	if n > MaxCommentLength {
		return "", utils.NewError(utils.ErrInvalid, "评论内容不能超过 2000 字")
	}
	return content, nil
}

// checkTarget 确认评论对象存在
func (s *CommentService) checkTarget(target repository.CommentTarget) error {
	switch {
	case target.EpisodeID != nil:
		ep, err := s.repos.Episode.FindByID(*target.EpisodeID)
		if err != nil {
			return err
		}
		if ep == nil {
			return utils.NewError(utils.ErrNotFound, "分集不存在")
		}
	case target.ComicID != nil:
		comic, err := s.repos.Comic.FindByID(*target.ComicID)
		if err != nil {
			return err
		}
		if comic == nil {
			return utils.NewError(utils.ErrNotFound, "漫画不存在")
		}
	default:
		return utils.NewError(utils.ErrInvalid, "缺少评论对象")
	}
	return nil
}

func sameTarget(c *model.Comment, target repository.CommentTarget) bool {
	if target.EpisodeID != nil {
		return c.EpisodeID != nil && *c.EpisodeID == *target.EpisodeID
	}
	return c.ComicID != nil && *c.ComicID == *target.ComicID
}

// Create 发表评论或回复，成功后记分并检查徽章
func (s *CommentService) Create(ctx context.Context, userID uint, target repository.CommentTarget, content string, parentID *uint) (*model.Comment, error) {
	if err := s.checkTarget(target); err != nil {
		return nil, err
	}
	text, err := cleanContent(content)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := s.repos.Comment.FindByID(*parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || !sameTarget(parent, target) {
			return nil, utils.NewError(utils.ErrInvalid, "回复的评论不存在")
		}
	}

	c := &model.Comment{
		UserID:    userID,
		EpisodeID: target.EpisodeID,
		ComicID:   target.ComicID,
		ParentID:  parentID,
		Content:   text,
	}
	if err := s.repos.Comment.Create(c); err != nil {
		return nil, err
	}

	s.gamification.OnAction(ctx, userID, model.ActionComment, c.ID)
	return c, nil
}

// ListByTarget 分页获取顶层评论，回复按层级嵌套
func (s *CommentService) ListByTarget(target repository.CommentTarget, limit, offset int) (*CommentPage, error) {
	if err := s.checkTarget(target); err != nil {
		return nil, err
	}
	roots, total, err := s.repos.Comment.ListTopLevel(target, limit, offset)
	if err != nil {
		return nil, err
	}
	rootIDs := make([]uint, len(roots))
	for i, c := range roots {
		rootIDs[i] = c.ID
	}
	replies, err := s.repos.Comment.DescendantsOf(rootIDs)
	if err != nil {
		return nil, err
	}
	return &CommentPage{Items: BuildTree(roots, replies), Total: total}, nil
}

// Get 获取单条评论及其全部回复
func (s *CommentService) Get(id uint) (*model.Comment, error) {
	c, err := s.repos.Comment.FindByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, utils.NewError(utils.ErrNotFound, "评论不存在")
	}
	desc, err := s.repos.Comment.Descendants(id)
	if err != nil {
		return nil, err
	}
	return BuildTree([]*model.Comment{c}, desc)[0], nil
}

// Update 修改评论，仅作者本人可以修改
func (s *CommentService) Update(actor Actor, id uint, content string) (*model.Comment, error) {
	c, err := s.repos.Comment.FindByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, utils.NewError(utils.ErrNotFound, "评论不存在")
	}
	if c.UserID != actor.UserID {
		return nil, utils.NewError(utils.ErrForbidden, "只能修改自己的评论")
	}
	text, err := cleanContent(content)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Comment.UpdateContent(id, text); err != nil {
		return nil, err
	}
	return s.repos.Comment.FindByID(id)
}

// Delete 删除评论及其全部回复，作者、版主和管理员可以删除
func (s *CommentService) Delete(actor Actor, id uint) (int64, error) {
	c, err := s.repos.Comment.FindByID(id)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, utils.NewError(utils.ErrNotFound, "评论不存在")
	}
	if c.UserID != actor.UserID && !actor.IsModerator() {
		return 0, utils.NewError(utils.ErrForbidden, "没有权限删除该评论")
	}
	return s.repos.Comment.DeleteTree(id)
}

// BuildTree 将回复挂到各自的父评论下，返回的顶层顺序与 roots 一致
func BuildTree(roots, replies []*model.Comment) []*model.Comment {
	byID := make(map[uint]*model.Comment, len(roots)+len(replies))
	for _, c := range roots {
		c.Replies = []*model.Comment{}
		byID[c.ID] = c
	}
	for _, c := range replies {
		c.Replies = []*model.Comment{}
		byID[c.ID] = c
	}
	for _, c := range replies {
		if c.ParentID == nil {
			continue
		}
		if parent, ok := byID[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, c)
		}
	}
	return roots
}
