package sitemap

import (
	"bytes"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/models"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/utils"
)

// Parse 从站点地图内容中提取URL记录
// 按文档顺序提取树中任意位置的<loc>元素文本,不做schema校验
// 解析失败不致命: 格式错误的XML返回空列表而不是错误
func Parse(content []byte) []models.URLRecord {
	doc, err := xmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		utils.Warnf("站点地图XML解析失败,返回空列表: %v", err)
		return []models.URLRecord{}
	}

	nodes, err := xmlquery.QueryAll(doc, "//loc")
	if err != nil {
		utils.Warnf("查询loc元素失败,返回空列表: %v", err)
		return []models.URLRecord{}
	}

	records := make([]models.URLRecord, 0, len(nodes))
	for _, node := range nodes {
		// 空的loc保留为空字符串记录,不过滤
		records = append(records, models.URLRecord{
			URL: strings.TrimSpace(node.InnerText()),
		})
	}

	return records
}
