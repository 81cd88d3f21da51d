package secret

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lunch-scheduler/project/domain"
)

// readVersion はリソース名のシークレットバージョンを読み出します
type readVersion func(ctx context.Context, resource string) ([]byte, error)

// Resolver は config.SecretSource の Secret Manager 実装です
// 起動時に一度だけ Slack / Google の認証情報を解決するために使います
type Resolver struct {
	project string
	read    readVersion
	closeFn func() error
}

// NewResolver は project 配下のシークレットを読む Resolver を作成します
func NewResolver(ctx context.Context, project string) (*Resolver, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secret manager: クライアント初期化失敗: %w", err)
	}

	read := func(ctx context.Context, resource string) ([]byte, error) {
		resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resource})
		if err != nil {
			return nil, err
		}
		return resp.GetPayload().GetData(), nil
	}
	return &Resolver{project: project, read: read, closeFn: client.Close}, nil
}

// GetSecret は secretName の値を返します（前後の空白は除去）
// 未登録または空の値は domain.ErrNotFound、権限不足などはそのままラップして返します
func (r *Resolver) GetSecret(ctx context.Context, secretName string) (string, error) {
	resource := versionResource(r.project, secretName)

	data, err := r.read(ctx, resource)
	switch {
	case status.Code(err) == codes.NotFound:
		return "", fmt.Errorf("secret manager: %w (resource=%s)", domain.ErrNotFound, resource)
	case err != nil:
		return "", fmt.Errorf("secret manager: %s の読み出し失敗: %w", resource, err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("secret manager: 値が空です: %w (resource=%s)", domain.ErrNotFound, resource)
	}
	return value, nil
}

// Close は下層のクライアントを閉じます
func (r *Resolver) Close() error {
	if r.closeFn == nil {
		return nil
	}
	return r.closeFn()
}

// versionResource は secretName を projects/{project}/secrets/{name}/versions/latest に展開します
// 完全なリソース名はそのまま、バージョン省略時のみ latest を付けます
func versionResource(project, secretName string) string {
	if !strings.HasPrefix(secretName, "projects/") {
		return "projects/" + project + "/secrets/" + secretName + "/versions/latest"
	}
	if strings.Contains(secretName, "/versions/") {
		return secretName
	}
	return secretName + "/versions/latest"
}
