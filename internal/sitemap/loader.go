package sitemap

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/models"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/utils"
)

// ErrLoadFailed 站点地图加载失败
var ErrLoadFailed = errors.New("站点地图加载失败")

// Loader 站点地图加载器
// 支持远程URL获取和本地文件两种来源,两者都会完整替换之前的结果
type Loader struct {
	client  *http.Client
	headers map[string]string
}

// NewLoader 创建站点地图加载器
// timeout为HTTP请求超时,headers为附加到远程请求的自定义HTTP头部
func NewLoader(timeout time.Duration, headers map[string]string) *Loader {
	// 跳过证书验证,允许访问自签名、过期或主机名不匹配的HTTPS站点
	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		Timeout: timeout,
	}

	return &Loader{
		client:  client,
		headers: headers,
	}
}

// LoadRemote 从远程URL加载站点地图
// 非2xx状态或网络错误返回ErrLoadFailed,成功时返回解析后的记录列表
func (l *Loader) LoadRemote(sitemapURL string) ([]models.URLRecord, error) {
	if err := models.ValidateURL(sitemapURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	req, err := http.NewRequest(http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: 创建请求失败: %v", ErrLoadFailed, err)
	}

	req.Header.Set("Accept", "application/xml, text/xml, */*")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for name, value := range l.headers {
		req.Header.Set(name, value)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: 请求失败: %v", ErrLoadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP状态码 %d", ErrLoadFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取响应失败: %v", ErrLoadFailed, err)
	}

	content, err := decompressBody(body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	records := Parse(content)
	utils.Infof("远程站点地图加载完成: %s (%d个URL)", sitemapURL, len(records))
	return records, nil
}

// LoadFile 从本地文件加载站点地图
// 读取失败返回ErrLoadFailed,文件中没有loc元素时返回空列表而非错误
func (l *Loader) LoadFile(path string) ([]models.URLRecord, error) {
	// 扩展名只是提示,不强制
	if !strings.HasSuffix(strings.ToLower(path), ".xml") {
		utils.Warnf("文件没有.xml扩展名,仍尝试解析: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取文件失败: %v", ErrLoadFailed, err)
	}

	records := Parse(content)
	utils.Infof("本地站点地图加载完成: %s (%d个URL)", path, len(records))
	return records, nil
}

// decompressBody 根据Content-Encoding解压响应内容
func decompressBody(body []byte, contentEncoding string) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		return body, nil

	default:
		// 未知编码,返回警告但仍然返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
