package checkout

import (
	"log/slog"

	"github.com/flaboy/pin"

	checkouterrors "github.com/flaboy/aira-checkout/pkg/errors"
	"github.com/flaboy/aira-checkout/pkg/types"
)

// Handle 处理一次结账请求，挂载到路由即可
func (o *Orchestrator) Handle(c *pin.Context) error {
	req, err := BuildRequest(c)
	if err != nil {
		return checkouterrors.ErrBadRequestForm
	}

	outcome := o.Dispatch(c.Request.Context(), req)
	return o.write(c, outcome)
}

// BuildRequest 从pin上下文构造框架无关的请求视图
func BuildRequest(c *pin.Context) (*types.Request, error) {
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	return &types.Request{
		Method:   c.Request.Method,
		Query:    c.Request.URL.Query(),
		Form:     c.Request.PostForm,
		RemoteIP: c.ClientIP(),
	}, nil
}

// write 把处理结果写成HTTP响应
func (o *Orchestrator) write(c *pin.Context, outcome *Outcome) error {
	if outcome.Kind == OutcomeRedirect {
		c.Redirect(302, outcome.Location)
		return nil
	}

	html, err := o.templates.render(outcome)
	if err != nil {
		slog.Error("failed to render checkout template", "template", outcome.Template, "error", err)
		return checkouterrors.ErrTemplateInvalid
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(200, html)
	return nil
}
