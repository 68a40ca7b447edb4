package task

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	TraceMove   = "move"
	TraceRemove = "remove"
)

// NullSink 丢弃全部输出
type NullSink struct{}

func (NullSink) VehicleMoved(entity.PositionUpdate)  {}
func (NullSink) VehicleRemoved(float64, int, string) {}
func (NullSink) Close() error                        { return nil }

// LogSink 以Debug日志输出车辆位置
type LogSink struct {
	log *logrus.Entry
}

func NewLogSink() *LogSink {
	return &LogSink{log: logrus.WithField("module", "sink")}
}

func (s *LogSink) VehicleMoved(u entity.PositionUpdate) {
	s.log.Debugf("T=%.2f vehicle %d (%s) at (%.1f, %.1f) heading %.0f", u.T, u.VID, u.VehicleID, u.Position.X, u.Position.Y, u.Heading)
}

func (s *LogSink) VehicleRemoved(t float64, vid int, vehicleID string) {
	s.log.Debugf("T=%.2f vehicle %d (%s) removed", t, vid, vehicleID)
}

func (s *LogSink) Close() error { return nil }

// TraceRecord 轨迹文件中的一条记录
type TraceRecord struct {
	Kind        string         `msgpack:"kind"` // move 或 remove
	T           float64        `msgpack:"t"`
	VID         int            `msgpack:"vid"`
	VehicleID   string         `msgpack:"vehicle_id"`
	VehicleType string         `msgpack:"vehicle_type,omitempty"`
	Position    types.Position `msgpack:"position"`
	Heading     float64        `msgpack:"heading"`
}

// RecordingSink 将位置推送以msgpack流写入文件，供离线回放
// 说明：写入错误只记录第一次，Close时返回
type RecordingSink struct {
	w   *bufio.Writer
	c   io.Closer
	enc *msgpack.Encoder

	n   int
	err error
}

// NewRecordingSink 基于任意Writer创建记录器，w实现io.Closer时Close会一并关闭
func NewRecordingSink(w io.Writer) *RecordingSink {
	bw := bufio.NewWriter(w)
	s := &RecordingSink{w: bw, enc: msgpack.NewEncoder(bw)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// CreateRecordingSink 创建轨迹文件
func CreateRecordingSink(path string) (*RecordingSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trace file: %w", err)
	}
	return NewRecordingSink(f), nil
}

func (s *RecordingSink) write(r TraceRecord) {
	if s.err != nil {
		return
	}
	if err := s.enc.Encode(&r); err != nil {
		s.err = err
		log.Errorf("trace write failed after %d records: %v", s.n, err)
		return
	}
	s.n++
}

func (s *RecordingSink) VehicleMoved(u entity.PositionUpdate) {
	s.write(TraceRecord{
		Kind:        TraceMove,
		T:           u.T,
		VID:         u.VID,
		VehicleID:   u.VehicleID,
		VehicleType: u.VehicleType.String(),
		Position:    u.Position,
		Heading:     u.Heading,
	})
}

func (s *RecordingSink) VehicleRemoved(t float64, vid int, vehicleID string) {
	s.write(TraceRecord{Kind: TraceRemove, T: t, VID: vid, VehicleID: vehicleID})
}

// Records 已写入的记录数
func (s *RecordingSink) Records() int {
	return s.n
}

func (s *RecordingSink) Close() error {
	err := errors.Join(s.err, s.w.Flush())
	if s.c != nil {
		err = errors.Join(err, s.c.Close())
	}
	log.Infof("trace closed with %d records", s.n)
	return err
}

// ReadTrace 读取RecordingSink写出的全部记录
func ReadTrace(r io.Reader) ([]TraceRecord, error) {
	dec := msgpack.NewDecoder(bufio.NewReader(r))
	var records []TraceRecord
	for {
		var rec TraceRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, fmt.Errorf("read trace record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}
