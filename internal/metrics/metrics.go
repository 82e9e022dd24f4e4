// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordLogin(success bool)
	RecordFileOperation(op string)
	RecordTicketCreated()
	RecordMessageAppended()
	RecordHTTPStatus(statusCode int)
	RecordWSConnectionOpened()
	RecordWSConnectionClosed()
	RecordNotificationsDelivered(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins        *prometheus.CounterVec
	fileOps       *prometheus.CounterVec
	tickets       prometheus.Counter
	messages      prometheus.Counter
	httpStatus    *prometheus.CounterVec
	wsConnections prometheus.Gauge
	notifications prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_logins_total",
			Help: "ログイン試行の結果別の合計数",
		}, []string{"result"}),
		fileOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_file_operations_total",
			Help: "ファイル操作の種類別の合計数",
		}, []string{"op"}),
		tickets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_tickets_created_total",
			Help: "作成されたチケットの合計数",
		}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_messages_appended_total",
			Help: "チケットに追記されたメッセージの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helpdesk_ws_connections",
			Help: "現在のWebSocket接続数",
		}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_notifications_delivered_total",
			Help: "購読者に配信された通知の合計数",
		}),
	}

	reg.MustRegister(
		c.logins,
		c.fileOps,
		c.tickets,
		c.messages,
		c.httpStatus,
		c.wsConnections,
		c.notifications,
	)

	return c
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordFileOperation はファイル操作を記録する。opはlist/read/write/deleteのいずれか。
func (c *Collector) RecordFileOperation(op string) {
	c.fileOps.WithLabelValues(op).Inc()
}

// RecordTicketCreated はチケット作成を記録する。
func (c *Collector) RecordTicketCreated() {
	c.tickets.Inc()
}

// RecordMessageAppended はメッセージ追記を記録する。
func (c *Collector) RecordMessageAppended() {
	c.messages.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordWSConnectionOpened はWebSocket接続の確立を記録する。
func (c *Collector) RecordWSConnectionOpened() {
	c.wsConnections.Inc()
}

// RecordWSConnectionClosed はWebSocket接続の切断を記録する。
func (c *Collector) RecordWSConnectionClosed() {
	c.wsConnections.Dec()
}

// RecordNotificationsDelivered は配信された通知数を記録する。
func (c *Collector) RecordNotificationsDelivered(count int) {
	c.notifications.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
