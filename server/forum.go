package server

import (
	"errors"
	"strconv"

	"github.com/aksjeradar/aksjeradar/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

type postRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"` // markdown
}

func (s *Server) forumRoutes(srv *fuego.Server) {
	forum := fuego.Group(srv, "/forum")

	fuego.Get(forum, "", s.listPosts,
		option.Description("Forum posts, newest first; ?limit= and ?offset= paginate"),
	)
	fuego.Get(forum, "/{id}", s.getPost,
		option.Description("One forum post with rendered body"),
	)
	fuego.Post(forum, "", s.createPost,
		option.Description("Publish a forum post (markdown body, subscribers only)"),
	)
}

func (s *Server) listPosts(c fuego.ContextNoBody) ([]store.ForumPost, error) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return s.store.Forum.List(limit, offset)
}

func (s *Server) getPost(c fuego.ContextNoBody) (*store.ForumPost, error) {
	id, err := strconv.ParseUint(c.PathParam("id"), 10, 32)
	if err != nil {
		return nil, fuego.BadRequestError{Title: "Ugyldig id"}
	}
	post, err := s.store.Forum.Get(uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fuego.NotFoundError{Title: "Innlegget finnes ikke"}
		}
		return nil, err
	}
	return post, nil
}

func (s *Server) createPost(c fuego.ContextWithBody[postRequest]) (*store.ForumPost, error) {
	user, err := requireSubscriber(c.Request())
	if err != nil {
		return nil, err
	}
	body, err := c.Body()
	if err != nil {
		return nil, err
	}
	author := user.DisplayName
	if author == "" {
		author = user.Email
	}
	post, err := s.store.Forum.Create(user.ID, author, body.Title, body.Body)
	if err != nil {
		return nil, fuego.BadRequestError{Title: "Ugyldig innlegg", Detail: err.Error()}
	}
	return post, nil
}
