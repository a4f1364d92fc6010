// Package router dispatches API Gateway proxy requests to the feature
// handlers by resource and HTTP method.
package router

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/config"
	"github.com/lingualoop/learning-api/internal/handler"
	"github.com/lingualoop/learning-api/internal/logging"
	"go.uber.org/zap"
)

// route is one feature's resource and its method handlers.
type route struct {
	feature  string
	resource string
	methods  map[string]handler.Func
}

// Router routes requests for one deployment. When feature is set every
// request goes to that feature, whatever its path.
type Router struct {
	byResource map[string]*route
	byFeature  map[string]*route
	feature    string
	logger     *zap.Logger
}

// New creates a Router over h. An empty feature serves every route.
func New(h *handler.Handler, feature string, logger *zap.Logger) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		byResource: map[string]*route{},
		byFeature:  map[string]*route{},
		feature:    feature,
		logger:     logger,
	}

	r.add(config.FeatureUsers, "/users", map[string]handler.Func{
		http.MethodGet:  h.GetUser,
		http.MethodPost: h.PostUser,
	})
	r.add(config.FeatureLessons, "/lessons", map[string]handler.Func{http.MethodPost: h.PostLesson})
	r.add(config.FeatureQuiz, "/quiz", map[string]handler.Func{http.MethodPost: h.PostQuiz})
	r.add(config.FeatureTranslate, "/translate", map[string]handler.Func{http.MethodPost: h.PostTranslate})
	r.add(config.FeatureVocabulary, "/vocabulary", map[string]handler.Func{
		http.MethodGet:  h.GetVocabulary,
		http.MethodPost: h.PostVocabulary,
	})
	r.add(config.FeatureVoice, "/voice", map[string]handler.Func{http.MethodPost: h.PostVoice})
	r.add(config.FeatureTranscribe, "/voice-transcribe", map[string]handler.Func{http.MethodPost: h.PostTranscribe})
	r.add(config.FeatureObjects, "/objects", map[string]handler.Func{http.MethodPost: h.PostObjects})
	r.add(config.FeatureDescription, "/description-check", map[string]handler.Func{http.MethodPost: h.PostDescriptionCheck})

	if feature != "" && r.byFeature[feature] == nil {
		return nil, fmt.Errorf("unknown feature %q", feature)
	}
	return r, nil
}

func (r *Router) add(feature, resource string, methods map[string]handler.Func) {
	rt := &route{feature: feature, resource: resource, methods: methods}
	r.byResource[resource] = rt
	r.byFeature[feature] = rt
}

// Resources returns the served resources in sorted order.
func (r *Router) Resources() []string {
	if r.feature != "" {
		return []string{r.byFeature[r.feature].resource}
	}
	out := make([]string, 0, len(r.byResource))
	for res := range r.byResource {
		out = append(out, res)
	}
	sort.Strings(out)
	return out
}

// Handle dispatches req. Preflight requests are answered for any served
// route; unknown routes get 404 and unsupported methods 405.
func (r *Router) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	method := strings.ToUpper(req.HTTPMethod)

	rt := r.match(req)
	logger := logging.WithRequest(ctx, r.logger).With(zap.String(logging.FieldMethod, method))
	if rt != nil {
		logger = logger.With(zap.String(logging.FieldFeature, rt.feature))
	}
	ctx = logging.NewContext(ctx, logger)

	var resp events.APIGatewayProxyResponse
	var err error
	switch fn := r.lookup(rt, method); {
	case rt == nil:
		resp = handler.Error(http.StatusNotFound, fmt.Sprintf("no route for %s", resourceOf(req)), "NotFound")
	case method == http.MethodOptions:
		resp = handler.Preflight()
	case fn == nil:
		resp = handler.Error(http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", method), "MethodNotAllowed")
		resp.Headers["Allow"] = allow(rt)
	default:
		resp, err = fn(ctx, req)
	}

	logger.Info("request handled",
		zap.String("resource", resourceOf(req)),
		zap.Int(logging.FieldStatus, resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	return resp, err
}

func (r *Router) match(req events.APIGatewayProxyRequest) *route {
	if r.feature != "" {
		return r.byFeature[r.feature]
	}
	return r.byResource[resourceOf(req)]
}

func (r *Router) lookup(rt *route, method string) handler.Func {
	if rt == nil {
		return nil
	}
	return rt.methods[method]
}

// resourceOf returns the API Gateway resource of req, falling back to the
// path, without a trailing slash.
func resourceOf(req events.APIGatewayProxyRequest) string {
	res := req.Resource
	if res == "" || strings.Contains(res, "{proxy+}") {
		res = req.Path
	}
	if len(res) > 1 {
		res = strings.TrimRight(res, "/")
	}
	return res
}

func allow(rt *route) string {
	methods := []string{http.MethodOptions}
	for m := range rt.methods {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
