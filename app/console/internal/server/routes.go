package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	nethttp "net/http"
	"path/filepath"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/annual_review/app/console/internal/domain"
	"github.com/iWorld-y/annual_review/app/console/internal/service"
)

const (
	OperationUpload   = "/review.Console/Upload"
	OperationTree     = "/review.Console/Tree"
	OperationDelete   = "/review.Console/Delete"
	OperationMkdir    = "/review.Console/Mkdir"
	OperationRun      = "/review.Console/Run"
	OperationListRuns = "/review.Console/ListRuns"
)

// maxUploadMemory multipart 表单在内存中保留的上限，超出部分落临时文件
const maxUploadMemory = 32 << 20

// RegisterReviewHTTPServer 注册 JSON 接口，统一经过服务端中间件
func RegisterReviewHTTPServer(s *http.Server, srv *service.ReviewService) {
	r := s.Route("/")
	r.POST("/upload", _Review_Upload_HTTP_Handler(srv))
	r.GET("/tree", _Review_Tree_HTTP_Handler(srv))
	r.POST("/delete", _Review_Delete_HTTP_Handler(srv))
	r.POST("/mkdir", _Review_Mkdir_HTTP_Handler(srv))
	r.POST("/run", _Review_Run_HTTP_Handler(srv))
	r.GET("/runs", _Review_ListRuns_HTTP_Handler(srv))
}

func _Review_Upload_HTTP_Handler(srv *service.ReviewService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		req := ctx.Request()
		if err := req.ParseMultipartForm(maxUploadMemory); err != nil {
			return errors.BadRequest("INVALID_FORM", err.Error())
		}
		in := service.UploadReq{Department: req.FormValue("department")}
		for _, fh := range req.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				return err
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return err
			}
			in.Files = append(in.Files, domain.UploadFile{Name: fh.Filename, Content: content})
		}
		http.SetOperation(ctx, OperationUpload)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Upload(ctx, req.(*service.UploadReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func _Review_Tree_HTTP_Handler(srv *service.ReviewService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in struct{}
		http.SetOperation(ctx, OperationTree)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Tree(ctx, req.(*struct{}))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func _Review_Delete_HTTP_Handler(srv *service.ReviewService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.PathReq
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationDelete)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Delete(ctx, req.(*service.PathReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func _Review_Mkdir_HTTP_Handler(srv *service.ReviewService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.PathReq
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationMkdir)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Mkdir(ctx, req.(*service.PathReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func _Review_Run_HTTP_Handler(srv *service.ReviewService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in domain.RunRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationRun)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Run(ctx, req.(*domain.RunRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func _Review_ListRuns_HTTP_Handler(srv *service.ReviewService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.ListRunsReq
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationListRuns)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListRuns(ctx, req.(*service.ListRunsReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

// streamHandler POST /run-stream，以 SSE 逐条推送运行事件
func streamHandler(srv *service.ReviewService) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			nethttp.Error(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		var in domain.RunRequest
		if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
			if err := json.Unmarshal(body, &in); err != nil {
				nethttp.Error(w, err.Error(), nethttp.StatusBadRequest)
				return
			}
		}

		// 请求上下文带有服务端超时，这里只在客户端写失败时停止投递
		ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
		defer cancel()
		events := srv.Stream(ctx, &in)

		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(nethttp.StatusOK)
		rc := nethttp.NewResponseController(w)

		for ev := range events {
			if err := writeEvent(w, ev); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}

func writeEvent(w io.Writer, ev domain.Event) error {
	data, err := marshalEvent(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func marshalEvent(ev domain.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// downloadHandler GET /download?path=...，以附件形式返回运行或上传目录下的文件
func downloadHandler(srv *service.ReviewService, ene http.EncodeErrorFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		p, err := srv.Resolve(r.URL.Query().Get("path"))
		if err != nil {
			ene(w, r, err)
			return
		}
		w.Header().Set("Content-Disposition",
			mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(p)}))
		nethttp.ServeFile(w, r, p)
	}
}
