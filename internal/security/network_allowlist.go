// Package security はアクセス元ネットワークの制限とコンテンツのサニタイズを提供する。
package security

import (
	"fmt"
	"net"
	"strings"
)

// DefaultAllowedNetworks はALLOWED_NETWORKS未設定時の許可ネットワーク。
// ローカルホストと社内ネットワーク 129.16.0.0/16 を許可する。
var DefaultAllowedNetworks = []string{
	"127.0.0.0/24",
	"129.16.0.0/16",
	"::1/128",
}

// NetworkAllowList は接続元IPアドレスの許可リスト。
// 生成後は読み取り専用のため、複数のgoroutineから安全に使用できる。
type NetworkAllowList struct {
	networks []net.IPNet
}

// NewNetworkAllowList はCIDR表記の一覧から許可リストを生成する。
// 不正なCIDRが含まれる場合はエラーを返す。空の一覧は許可しない。
func NewNetworkAllowList(cidrs []string) (*NetworkAllowList, error) {
	l := &NetworkAllowList{}
	for _, raw := range cidrs {
		cidr := strings.TrimSpace(raw)
		if cidr == "" {
			continue
		}
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR in allowed networks: %s: %w", cidr, err)
		}
		l.networks = append(l.networks, *network)
	}
	if len(l.networks) == 0 {
		return nil, fmt.Errorf("allowed networks must not be empty")
	}
	return l, nil
}

// Allows はIPアドレスがいずれかの許可ネットワークに含まれるかを判定する。
// IPv4射影IPv6アドレス（::ffff:127.0.0.1）はIPv4として扱う。
func (l *NetworkAllowList) Allows(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	for _, network := range l.networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// AllowsAddr はhttp.Request.RemoteAddr形式（host:port またはhost）の文字列を判定する。
// パースできないアドレスは許可しない。
func (l *NetworkAllowList) AllowsAddr(remoteAddr string) bool {
	return l.Allows(ParseRemoteIP(remoteAddr))
}

// ParseRemoteIP はRemoteAddrからIPアドレスを取り出す。失敗した場合はnilを返す。
func ParseRemoteIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if i := strings.IndexByte(host, '%'); i >= 0 {
		host = host[:i]
	}
	return net.ParseIP(host)
}

// String は許可ネットワークをカンマ区切りで返す。起動ログ用。
func (l *NetworkAllowList) String() string {
	parts := make([]string, len(l.networks))
	for i, n := range l.networks {
		parts[i] = n.String()
	}
	return strings.Join(parts, ",")
}
