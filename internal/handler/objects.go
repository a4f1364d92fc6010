package handler

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/language"
	"github.com/lingualoop/learning-api/internal/resolver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type objectsRequest struct {
	UserID string `json:"userId"`
	Image  string `json:"image"`
}

// DetectedObject is a label with its translation into the target language.
type DetectedObject struct {
	Name        string  `json:"name"`
	Translation string  `json:"translation"`
	Confidence  float64 `json:"confidence"`
	Translated  bool    `json:"translated"`
}

type objectsResponse struct {
	Objects        []DetectedObject `json:"objects"`
	TargetLanguage language.Code    `json:"targetLanguage"`
	Timestamp      string           `json:"timestamp"`
	Method         string           `json:"method"`
}

// PostObjects detects objects in an image and names them in the user's
// target language.
func (h *Handler) PostObjects(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, image, err := objectsInput(req)
	if err != nil {
		return h.fail(ctx, err)
	}

	rc, ctx, err := h.resolve(ctx, userID)
	if err != nil {
		return h.fail(ctx, err)
	}

	labels, err := h.Labels.DetectLabels(ctx, image)
	if err != nil {
		return h.fail(ctx, err)
	}

	objects := make([]DetectedObject, len(labels))
	for i, l := range labels {
		objects[i] = DetectedObject{Name: l.Name, Translation: l.Name, Confidence: l.Confidence}
	}
	h.translateLabels(ctx, rc, objects)

	return ok(objectsResponse{
		Objects:        objects,
		TargetLanguage: rc.TargetCode,
		Timestamp:      h.timestamp(),
		Method:         methodLabels,
	})
}

// translateLabels fills in translations concurrently. A failed translation
// keeps the English label and is flagged untranslated.
func (h *Handler) translateLabels(ctx context.Context, rc resolver.Context, objects []DetectedObject) {
	if rc.TargetCode == "en" {
		for i := range objects {
			objects[i].Translated = true
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(h.LabelConcurrency)
	for i := range objects {
		g.Go(func() error {
			reply, err := h.Generator.Generate(ctx, labelPrompt(objects[i].Name, rc.TargetName))
			if err == nil {
				if t := cleanTranslation(reply); t != "" {
					objects[i].Translation = t
					objects[i].Translated = true
					return nil
				}
			}
			h.logger(ctx).Warn("label translation failed, keeping label",
				zap.String("label", objects[i].Name), zap.Error(err))
			return nil
		})
	}
	_ = g.Wait()
}

// objectsInput reads the user id and image from a JSON body with a base64
// image or from a multipart upload.
func objectsInput(req events.APIGatewayProxyRequest) (string, []byte, error) {
	if isMultipart(req) {
		f, err := parseMultipart(req)
		if err != nil {
			return "", nil, err
		}
		image := f.file("image")
		if len(image) == 0 {
			if encoded := f.value("image"); encoded != "" {
				if image, err = decodeBase64Image(encoded); err != nil {
					return "", nil, err
				}
			}
		}
		if len(image) == 0 {
			return "", nil, fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
		}
		return f.value("userId"), image, nil
	}

	var in objectsRequest
	if err := decodeJSON(req, &in); err != nil {
		return "", nil, err
	}
	if err := required(in.Image, "image"); err != nil {
		return "", nil, err
	}
	image, err := decodeBase64Image(in.Image)
	if err != nil {
		return "", nil, err
	}
	return in.UserID, image, nil
}
