// 输入数据加载：路网可来自JSON/YAML文件或MongoDB
package input

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/yaml.v2"
)

// 路网集合中每个文档的class字段取值
const (
	ClassNode = "node"
	ClassEdge = "edge"
)

// networkDoc 路网集合中的单个文档
type networkDoc struct {
	Class string   `bson:"class"`
	Data  bson.Raw `bson:"data"`
}

// Input 输入数据
type Input struct {
	Network roadgraph.Network
}

// Init 加载全部输入数据
// 功能：根据配置加载路网
// 参数：ctx-上下文，cfg-配置对象
// 返回：输入数据；配置缺失或数据无效时返回error
// 算法说明：
// 1. 配置了文件路径时从文件读取（按扩展名选择JSON或YAML）
// 2. 否则连接input.uri指定的MongoDB并读取graph集合
func Init(ctx context.Context, cfg config.Config) (*Input, error) {
	p := cfg.Input.Graph
	var (
		n   roadgraph.Network
		err error
	)
	switch {
	case p.File != "":
		log.Infof("loading road network from %s", p.File)
		n, err = ReadNetworkFile(p.File)
	case cfg.Input.URI != "" && p.Col != "":
		client := mongoutil.NewClient(cfg.Input.URI)
		defer client.Disconnect(context.Background())
		log.Infof("start fetching from %s.%s", p.DB, p.Col)
		n, err = LoadNetworkFromMongo(ctx, mongoutil.GetMongoColl(client, p))
		log.Infof("finish fetching from %s.%s", p.DB, p.Col)
	default:
		return nil, fmt.Errorf("input.graph: neither file nor mongo collection configured")
	}
	if err != nil {
		return nil, err
	}
	log.Infof("road network: %d nodes, %d edges", len(n.Nodes), len(n.Edges))
	return &Input{Network: n}, nil
}

// ReadNetworkFile 从文件读取路网，.yaml/.yml按YAML解析，其余按JSON解析
func ReadNetworkFile(path string) (roadgraph.Network, error) {
	var n roadgraph.Network
	data, err := os.ReadFile(path)
	if err != nil {
		return n, fmt.Errorf("read network file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(data, &n)
	default:
		err = json.Unmarshal(data, &n)
	}
	if err != nil {
		return n, fmt.Errorf("parse network file %s: %w", path, err)
	}
	return n, nil
}

// WriteNetworkFile 将路网写入JSON或YAML文件
func WriteNetworkFile(path string, n roadgraph.Network) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(n)
	default:
		data, err = json.MarshalIndent(n, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadNetworkFromMongo 从集合读取路网
// 说明：文档形如{class: "node"|"edge", data: {...}}，未知class记录警告后跳过
func LoadNetworkFromMongo(ctx context.Context, coll *mongo.Collection) (roadgraph.Network, error) {
	var n roadgraph.Network
	cur, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return n, fmt.Errorf("find network documents: %w", err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var doc networkDoc
		if err := cur.Decode(&doc); err != nil {
			return n, fmt.Errorf("decode network document: %w", err)
		}
		switch doc.Class {
		case ClassNode:
			var nd roadgraph.NodeData
			if err := bson.Unmarshal(doc.Data, &nd); err != nil {
				return n, fmt.Errorf("decode node: %w", err)
			}
			n.Nodes = append(n.Nodes, nd)
		case ClassEdge:
			var ed roadgraph.EdgeData
			if err := bson.Unmarshal(doc.Data, &ed); err != nil {
				return n, fmt.Errorf("decode edge: %w", err)
			}
			n.Edges = append(n.Edges, ed)
		default:
			log.Warnf("unknown network document class %q", doc.Class)
		}
	}
	return n, cur.Err()
}

// SaveNetworkToMongo 以{class, data}文档形式写入路网（先清空集合）
func SaveNetworkToMongo(ctx context.Context, coll *mongo.Collection, n roadgraph.Network) error {
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	docs := make([]any, 0, len(n.Nodes)+len(n.Edges))
	for _, nd := range n.Nodes {
		docs = append(docs, bson.M{"class": ClassNode, "data": nd})
	}
	for _, ed := range n.Edges {
		docs = append(docs, bson.M{"class": ClassEdge, "data": ed})
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := coll.InsertMany(ctx, docs)
	return err
}
