package httpserver

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"skins-market/internal/domain"
	"skins-market/internal/service/account"
)

const criticalMessage = "Some problem happened. Do not panic, we are working on this."

// respond writes {key: data} with status.
func respond(c *gin.Context, status int, key string, data any) {
	c.JSON(status, gin.H{key: data})
}

func respondSuccess(c *gin.Context, message string) {
	respond(c, http.StatusOK, "success", message)
}

// respondError maps err to a status and a JSON body and logs it at the matching level.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status, body := classify(err)
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err),
	}
	switch {
	case status == http.StatusBadGateway:
		log.Error("request failed", append(fields, zap.Bool("critical", true))...)
	case status >= http.StatusInternalServerError:
		log.Error("request failed", fields...)
	default:
		log.Warn("request rejected", fields...)
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, gin.H) {
	var (
		verr *domain.ValidationError
		rerr *domain.RuleError
		cerr *domain.CriticalError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": "not found"}
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, gin.H{"error": "already exists"}
	case errors.Is(err, account.ErrInvalidToken):
		return http.StatusUnauthorized, gin.H{"error": "invalid or expired token"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, ruleBody(domain.ErrInvalidCredentials)
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired, ruleBody(domain.ErrInsufficientFunds)
	case errors.As(err, &rerr):
		return http.StatusConflict, ruleBody(rerr)
	case errors.As(err, &cerr):
		return http.StatusBadGateway, gin.H{"error": criticalMessage}
	}
	return http.StatusInternalServerError, gin.H{"error": "internal error"}
}

func ruleBody(e *domain.RuleError) gin.H {
	return gin.H{"error": e.Message, "code": e.Code}
}

type pagination struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Count    int     `json:"count"`
}

// respondPage writes the paginated envelope. Count is the number of pages.
func respondPage(c *gin.Context, items any, total, page, size int) {
	pages := 0
	if size > 0 {
		pages = int(math.Ceil(float64(total) / float64(size)))
	}
	p := pagination{Count: pages}
	if page < pages {
		link := pageLink(c.Request.URL, page+1)
		p.Next = &link
	}
	if page > 1 {
		link := pageLink(c.Request.URL, page-1)
		p.Previous = &link
	}
	c.JSON(http.StatusOK, gin.H{"pagination": p, "items": items})
}

func pageLink(u *url.URL, page int) string {
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s?%s", u.Path, q.Encode())
}

func parseID(c *gin.Context, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid(param, "must be a positive integer")
	}
	return id, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(name, "must be an integer")
	}
	return v, nil
}

// bindJSON decodes the body and runs its binding rules. A failed rule is
// reported against the JSON field; malformed JSON against "body".
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return domain.Invalid(verrs[0].Field(), ruleMessage(verrs[0]))
	}
	return domain.Invalid("body", err.Error())
}
