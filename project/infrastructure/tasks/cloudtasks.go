package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"

	"lunch-scheduler/project/dto"
	"lunch-scheduler/project/infrastructure/config"
)

// lunchTaskPath は Cloud Tasks からのコールバック先です
const lunchTaskPath = "/tasks/lunch"

// CloudTasksDispatcher はワークフローを Cloud Tasks のキューに登録します
type CloudTasksDispatcher struct {
	client   *cloudtasks.Client
	queue    string // projects/{project}/locations/{region}/queues/{queue}
	audience string // OIDC Audience (Cloud Run サービスの URL)
	svcAcct  string // Service Account メールアドレス

	// createTask はテストで API 呼び出しを差し替えるために使います
	createTask func(ctx context.Context, req *cloudtaskspb.CreateTaskRequest) error
}

// NewCloudTasksDispatcher は Cloud Tasks クライアントを初期化します
func NewCloudTasksDispatcher(ctx context.Context, cfg *config.Config) (*CloudTasksDispatcher, error) {
	client, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("cloudtasks: クライアント初期化失敗: %w", err)
	}

	d := &CloudTasksDispatcher{
		client:   client,
		queue:    queuePath(cfg.GcpProject, cfg.Region, cfg.TasksQueue),
		audience: cfg.TasksOIDCAudience(),
		svcAcct:  cfg.TasksServiceAccount,
	}
	d.createTask = func(ctx context.Context, req *cloudtaskspb.CreateTaskRequest) error {
		_, err := d.client.CreateTask(ctx, req)
		return err
	}
	return d, nil
}

// Dispatch はペイロードを /tasks/lunch 宛ての HTTP タスクとして登録します
func (d *CloudTasksDispatcher) Dispatch(ctx context.Context, payload *dto.LunchTaskPayload) error {
	req, err := d.buildRequest(payload)
	if err != nil {
		return err
	}

	if err := d.createTask(ctx, req); err != nil {
		return fmt.Errorf("cloudtasks: タスク登録失敗 (queue=%s, event=%s): %w", d.queue, payload.EventID, err)
	}
	return nil
}

// buildRequest は OIDC トークン付きの CreateTaskRequest を組み立てます
func (d *CloudTasksDispatcher) buildRequest(payload *dto.LunchTaskPayload) (*cloudtaskspb.CreateTaskRequest, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("cloudtasks: ペイロード JSON 化失敗: %w", err)
	}

	return &cloudtaskspb.CreateTaskRequest{
		Parent: d.queue,
		Task: &cloudtaskspb.Task{
			MessageType: &cloudtaskspb.Task_HttpRequest{
				HttpRequest: &cloudtaskspb.HttpRequest{
					Url:        d.audience + lunchTaskPath,
					HttpMethod: cloudtaskspb.HttpMethod_POST,
					Headers:    map[string]string{"Content-Type": "application/json"},
					Body:       body,
					AuthorizationHeader: &cloudtaskspb.HttpRequest_OidcToken{
						OidcToken: &cloudtaskspb.OidcToken{
							ServiceAccountEmail: d.svcAcct,
							Audience:            d.audience,
						},
					},
				},
			},
		},
	}, nil
}

// Close は Cloud Tasks クライアントを閉じます
func (d *CloudTasksDispatcher) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// queuePath はキューのリソース名を返します。完全なリソース名が渡された場合はそのまま使います
func queuePath(project, region, queue string) string {
	if strings.HasPrefix(queue, "projects/") {
		return queue
	}
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", project, region, queue)
}
