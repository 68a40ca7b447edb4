// 随机数引擎，包装了golang.org/x/exp/rand，提供仿真中用到的各类分布
package randengine

import (
	"flag"
	"hash/fnv"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：全局唯一的随机源，仿真中所有随机决策都从这里取数，保证同种子可复现
// 说明：只能在仿真主循环中调用；并行任务各自使用Derive派生的子引擎
type Engine struct {
	*rand.Rand // 底层随机数生成器
}

// New 创建随机数引擎
// 参数：seed-随机数种子
// 说明：种子偏移量允许在不修改配置的情况下调整随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// Derive 派生独立的子引擎
// 功能：由主种子与标签确定性地构造子引擎，用于并行任务中各自取数
// 参数：seed-主种子，label-子任务标签（如边ID）
// 说明：子引擎序列只取决于(seed, label)，与调度顺序无关
func Derive(seed uint64, label string) *Engine {
	h := fnv.New64a()
	_, _ = h.Write([]byte(label))
	return New(seed ^ h.Sum64())
}

// DiscreteDistribution 按给定概率分布生成随机数
// 参数：weight-权重数组，每个元素表示对应索引的概率权重
// 返回：随机生成的索引值（0到len(weight)-1）
// 算法说明：累积分布函数法，总权重不必归一
func (e *Engine) DiscreteDistribution(weight []float64) int32 {
	random := .0
	for _, w := range weight {
		random += w
	}
	random *= e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return int32(i)
		}
	}
	logrus.Panicf("randengine: DiscreteDistribution: sum: %f random: %f", sum, random)
	return -1
}

// PTrue 以指定概率返回true
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// Uniform 均匀分布[lo, hi)
func (e *Engine) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*e.Float64()
}

// Exp 指数分布
// 参数：rate-速率参数λ（均值为1/λ），必须为正
func (e *Engine) Exp(rate float64) float64 {
	return e.ExpFloat64() / rate
}

// Poisson 泊松分布
// 功能：生成均值为lambda的泊松随机数
// 算法说明：Knuth乘积法，均值较大时改用正态近似
func (e *Engine) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda > 30 {
		n := int(math.Round(lambda + math.Sqrt(lambda)*e.NormFloat64()))
		return max(n, 0)
	}
	l := math.Exp(-lambda)
	k, p := 0, 1.
	for {
		p *= e.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

// Choice 按权重从候选项中抽取一个
// 参数：items-候选项（顺序固定），weights-对应权重
// 返回：抽中的候选项；全部权重为0时返回第一项
// 说明：调用方需保证items顺序确定，否则结果不可复现
func Choice[T any](e *Engine, items []T, weights []float64) T {
	total := 0.
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return items[0]
	}
	return items[e.DiscreteDistribution(weights)]
}
