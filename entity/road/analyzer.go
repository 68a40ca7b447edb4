// 道路状况分析与动态路况映射
package road

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
)

// Pothole 坑洼
type Pothole struct {
	Edge     roadgraph.EdgeID    `json:"edge_id"`
	Position geometry.Point      `json:"position"` // Z为负的深度
	Severity types.SeverityLevel `json:"severity"`
	Diameter float64             `json:"diameter"` // 米
	Depth    float64             `json:"depth"`    // 米
}

// ConstructionZone 施工区
type ConstructionZone struct {
	Edges               []roadgraph.EdgeID       `json:"edge_ids"`
	Type                types.ConstructionStatus `json:"construction_type"`
	Start               time.Time                `json:"start_date"`
	EstimatedEnd        time.Time                `json:"estimated_end_date"`
	LanesAffected       int                      `json:"lanes_affected"`
	SpeedLimitReduction float64                  `json:"speed_limit_reduction"` // 速度系数，0表示封闭
	Description         string                   `json:"description"`
}

// ConstructionUpdate 施工区的部分更新，nil字段保持不变
type ConstructionUpdate struct {
	ZoneID         int
	End            *time.Time
	LanesAffected  *int
	SpeedReduction *float64
	Description    *string
}

func (z *ConstructionZone) apply(u ConstructionUpdate) {
	if u.End != nil {
		z.EstimatedEnd = *u.End
	}
	if u.LanesAffected != nil {
		z.LanesAffected = *u.LanesAffected
	}
	if u.SpeedReduction != nil {
		z.SpeedLimitReduction = *u.SpeedReduction
	}
	if u.Description != nil {
		z.Description = *u.Description
	}
}

// DynamicConditions 外部条件变化通知
type DynamicConditions struct {
	Weather             *types.WeatherType // 天气变化
	Hour                *int               // 时段变化
	ConstructionUpdates []ConstructionUpdate
}

// Analyzer 道路分析器
// 功能：依据OSM标签评估道路质量、估计坑洼、识别施工区
// 说明：每条边的随机量来自由(种子, 边, 代次)派生的独立引擎，并行计算结果与调度顺序无关；
// 条件变化清空缓存时代次加一
type Analyzer struct {
	cfg  config.RoadConditionConfig
	seed uint64
	now  time.Time // 估计路龄与施工日期的参考时刻

	generation int
	quality    map[roadgraph.EdgeID]types.RoadQuality
	potholes   map[roadgraph.EdgeID][]Pothole
	zones      []*ConstructionZone
}

// NewAnalyzer 创建道路分析器
// 参数：cfg-路况参数，seed-随机种子，now-参考时刻（通常为仿真起始时刻）
func NewAnalyzer(cfg config.RoadConditionConfig, seed uint64, now time.Time) *Analyzer {
	return &Analyzer{
		cfg:      cfg,
		seed:     seed,
		now:      now,
		quality:  make(map[roadgraph.EdgeID]types.RoadQuality),
		potholes: make(map[roadgraph.EdgeID][]Pothole),
	}
}

func (a *Analyzer) edgeRng(kind string, e roadgraph.EdgeID) *randengine.Engine {
	return randengine.Derive(a.seed, fmt.Sprintf("%s/%v/%d", kind, e, a.generation))
}

// AnalyzeRoadQuality 评估全部边的道路质量
// 功能：对缓存中没有的边并行计算质量评分，并写入缓存
// 算法说明：
// 1. 评分 = 0.3·路面 + 0.3·养护 + 0.2·道路等级 + 0.2·路龄
// 2. 评分≥0.8为EXCELLENT，≥0.6为GOOD，≥0.4为POOR，否则VERY_POOR
func (a *Analyzer) AnalyzeRoadQuality(g *roadgraph.Graph) map[roadgraph.EdgeID]types.RoadQuality {
	missing := lo.Filter(g.Edges(), func(e roadgraph.EdgeID, _ int) bool {
		_, ok := a.quality[e]
		return !ok
	})
	type result struct {
		e roadgraph.EdgeID
		q types.RoadQuality
	}
	results := parallel.GoMap(missing, func(e roadgraph.EdgeID) result {
		ed, _ := g.Edge(e)
		return result{e: e, q: qualityFromScore(a.qualityScore(ed))}
	})
	for _, r := range results {
		a.quality[r.e] = r.q
	}
	res := make(map[roadgraph.EdgeID]types.RoadQuality, g.NumEdges())
	for _, e := range g.Edges() {
		res[e] = a.quality[e]
	}
	return res
}

func qualityFromScore(s float64) types.RoadQuality {
	switch {
	case s >= 0.8:
		return types.QualityExcellent
	case s >= 0.6:
		return types.QualityGood
	case s >= 0.4:
		return types.QualityPoor
	default:
		return types.QualityVeryPoor
	}
}

func (a *Analyzer) qualityScore(ed roadgraph.EdgeData) float64 {
	surface := lo.ValueOr(a.cfg.SurfaceTypeWeights, surfaceType(ed), 0.5)
	maintenance := lo.ValueOr(a.cfg.MaintenanceWeights, maintenanceLevel(ed), 0.5)
	highway := lo.ValueOr(highwayQualityFactors, strings.ToLower(ed.Highway), 0.5)
	age := ageQualityFactor(a.roadAge(ed))
	return lo.Clamp(surface*0.3+maintenance*0.3+highway*0.2+age*0.2, 0, 1)
}

// DetectPotholes 估计一条边上的坑洼
// 算法说明：
// 1. 每百米概率 p = min(路龄/20, 1) × 路面系数 × 养护系数 × 0.1，上限为1
// 2. 数量 ~ Poisson(长度/100 × p)
// 3. 严重度按养护水平抽取，尺寸按严重度抽取，碎石与土路放大
func (a *Analyzer) DetectPotholes(g *roadgraph.Graph, e roadgraph.EdgeID) []Pothole {
	if ps, ok := a.potholes[e]; ok {
		return ps
	}
	ed, ok := g.Edge(e)
	if !ok {
		return nil
	}
	rng := a.edgeRng("potholes", e)
	surface, maintenance := surfaceType(ed), maintenanceLevel(ed)
	p := min(float64(a.roadAge(ed))/20, 1) *
		lo.ValueOr(potholeSurfaceMultipliers, surface, 2.0) *
		lo.ValueOr(potholeMaintenanceMultipliers, maintenance, 2.0) * 0.1
	p = min(p, 1)
	length := ed.Length
	if length <= 0 {
		length = 100
	}
	n := rng.Poisson(length / 100 * p)
	u, _ := g.Node(e.U)
	v, _ := g.Node(e.V)
	a0, b0 := geometry.Point{X: u.X, Y: u.Y}, geometry.Point{X: v.X, Y: v.Y}

	ps := make([]Pothole, 0, n)
	for i := 0; i < n; i++ {
		ratio := rng.Uniform(0.1, 0.9)
		var choices []types.SeverityLevel
		switch maintenance {
		case types.Unmaintained:
			choices = []types.SeverityLevel{types.SeverityMedium, types.SeverityHigh, types.SeverityCritical}
		case types.PoorlyMaintained:
			choices = []types.SeverityLevel{types.SeverityLow, types.SeverityMedium, types.SeverityHigh}
		default:
			choices = []types.SeverityLevel{types.SeverityLow, types.SeverityMedium}
		}
		sev := choices[rng.Intn(len(choices))]
		dr, pr := potholeDiameters[sev], potholeDepths[sev]
		diameter, depth := rng.Uniform(dr[0], dr[1]), rng.Uniform(pr[0], pr[1])
		switch surface {
		case types.SurfaceDirt:
			diameter *= 1.5
			depth *= 2
		case types.SurfaceGravel:
			diameter *= 1.2
			depth *= 1.5
		}
		pos := geometry.Blend(a0, b0, ratio)
		pos.Z = -depth
		ps = append(ps, Pothole{Edge: e, Position: pos, Severity: sev, Diameter: diameter, Depth: depth})
	}
	a.potholes[e] = ps
	return ps
}

// IdentifyConstructionZones 识别施工区
// 功能：找出带施工标签的边，按施工状态分组，并将共享端点的相邻边合并为一个施工区
// 返回：施工区列表（按状态枚举顺序，组内按首条边顺序）
func (a *Analyzer) IdentifyConstructionZones(g *roadgraph.Graph) []*ConstructionZone {
	byStatus := make(map[types.ConstructionStatus][]roadgraph.EdgeID)
	for _, e := range g.Edges() {
		ed, _ := g.Edge(e)
		if s := constructionStatus(ed); s != types.ConstructionNone {
			byStatus[s] = append(byStatus[s], e)
		}
	}
	zones := make([]*ConstructionZone, 0)
	for _, status := range []types.ConstructionStatus{types.ConstructionMinor, types.ConstructionMajor, types.ConstructionClosure} {
		for _, group := range groupAdjacentEdges(byStatus[status]) {
			first, _ := g.Edge(group[0])
			zones = append(zones, a.newConstructionZone(group, first, status))
		}
	}
	a.zones = zones
	if len(zones) > 0 {
		log.Infof("identified %d construction zones", len(zones))
	}
	return zones
}

func (a *Analyzer) newConstructionZone(edges []roadgraph.EdgeID, ed roadgraph.EdgeData, status types.ConstructionStatus) *ConstructionZone {
	rng := a.edgeRng("construction", edges[0])
	var (
		days, lanes int
		reduction   float64
	)
	switch status {
	case types.ConstructionMajor:
		days, lanes, reduction = 180+rng.Intn(551), 1+rng.Intn(3), 0.3
	case types.ConstructionMinor:
		days, lanes, reduction = 7+rng.Intn(84), 1+rng.Intn(2), 0.5
	default:
		days, lanes, reduction = 1+rng.Intn(30), 99, 0
	}
	start := a.now.AddDate(0, 0, -rng.Intn(31))
	name := ed.Name
	if name == "" {
		name = "unnamed road"
	}
	return &ConstructionZone{
		Edges:               edges,
		Type:                status,
		Start:               start,
		EstimatedEnd:        start.AddDate(0, 0, days),
		LanesAffected:       lanes,
		SpeedLimitReduction: reduction,
		Description:         fmt.Sprintf("%s on %s", titleName(status.String()), name),
	}
}

// ConstructionZones 最近一次识别出的施工区
func (a *Analyzer) ConstructionZones() []*ConstructionZone {
	return a.zones
}

// UpdateDynamicConditions 响应外部条件变化
// 说明：天气或时段变化时清空质量与坑洼缓存；施工更新按序号作用到已识别的施工区
func (a *Analyzer) UpdateDynamicConditions(c DynamicConditions) {
	if c.Weather != nil || c.Hour != nil {
		a.quality = make(map[roadgraph.EdgeID]types.RoadQuality)
		a.potholes = make(map[roadgraph.EdgeID][]Pothole)
		a.generation++
	}
	for _, u := range c.ConstructionUpdates {
		if u.ZoneID >= 0 && u.ZoneID < len(a.zones) {
			a.zones[u.ZoneID].apply(u)
		}
	}
}

// CachedEdges 质量缓存中的边数
func (a *Analyzer) CachedEdges() int {
	return len(a.quality)
}

// roadAge 路龄（年）
// 说明：有start_date时按参考时刻年份计算，否则按道路等级随机估计
func (a *Analyzer) roadAge(ed roadgraph.EdgeData) int {
	if ed.StartDate != "" {
		if year, err := strconv.Atoi(strings.SplitN(ed.StartDate, "-", 2)[0]); err == nil {
			return max(0, a.now.Year()-year)
		}
	}
	rng := a.edgeRng("age", ed.ID())
	switch strings.ToLower(ed.Highway) {
	case "motorway", "trunk":
		return 5 + rng.Intn(11)
	case "primary", "secondary":
		return 10 + rng.Intn(16)
	default:
		return 15 + rng.Intn(26)
	}
}

func ageQualityFactor(age int) float64 {
	switch {
	case age <= 5:
		return 1.0
	case age <= 10:
		return 0.8
	case age <= 20:
		return 0.6
	default:
		return 0.3
	}
}

func surfaceType(ed roadgraph.EdgeData) types.SurfaceType {
	switch strings.ToLower(ed.Surface) {
	case "asphalt", "paved":
		return types.SurfaceAsphalt
	case "concrete":
		return types.SurfaceConcrete
	case "gravel", "fine_gravel":
		return types.SurfaceGravel
	case "dirt", "earth", "mud", "sand":
		return types.SurfaceDirt
	case "cobblestone", "sett":
		return types.SurfaceCobblestone
	}
	switch strings.ToLower(ed.Highway) {
	case "motorway", "trunk", "primary", "secondary", "tertiary":
		return types.SurfaceAsphalt
	}
	return types.SurfaceGravel
}

func maintenanceLevel(ed roadgraph.EdgeData) types.MaintenanceLevel {
	switch strings.ToLower(ed.Condition) {
	case "excellent", "good":
		return types.WellMaintained
	case "poor", "bad":
		return types.PoorlyMaintained
	case "very_bad", "terrible":
		return types.Unmaintained
	}
	switch strings.ToLower(ed.Highway) {
	case "motorway", "trunk":
		return types.WellMaintained
	case "primary", "secondary", "tertiary", "residential":
		return types.ModeratelyMaintained
	}
	return types.PoorlyMaintained
}

func constructionStatus(ed roadgraph.EdgeData) types.ConstructionStatus {
	construction := strings.ToLower(ed.Construction)
	if strings.Contains(strings.ToLower(ed.Highway), "construction") || construction != "" {
		if strings.Contains(construction, "major") || strings.Contains(construction, "reconstruction") {
			return types.ConstructionMajor
		}
		return types.ConstructionMinor
	}
	if ed.Temporary {
		return types.ConstructionMinor
	}
	switch strings.ToLower(ed.Access) {
	case "no", "private", "construction":
		return types.ConstructionClosure
	}
	return types.ConstructionNone
}

// titleName MAJOR_CONSTRUCTION -> Major Construction
func titleName(s string) string {
	words := strings.Split(strings.ToLower(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
