package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/vecsim/blobstore"
)

// CurrentKey is the object name the commit store intercepts. Its
// content is the name of the manifest object the pointer designates.
const CurrentKey = "CURRENT"

// ErrConcurrentModification is returned when another writer committed a
// new version between read and write.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the subset of the DynamoDB API the commit store needs.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DDBCommitStore wraps an S3-backed Store and versions the CURRENT
// pointer through DynamoDB conditional writes. S3 alone cannot
// compare-and-swap, so two backup runs finishing at the same time could
// silently overwrite each other's pointer; with the commit store the
// second writer fails with ErrConcurrentModification instead.
//
// Every other object passes through to S3 untouched.
//
// Table schema:
//   - Partition key: base_uri (string) - the S3 bucket/prefix
//   - Sort key: version (number) - monotonically increasing version
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name vecsim-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	inner     blobstore.Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

// NewDDBCommitStore creates an S3+DynamoDB commit store. baseURI should
// be the "s3://bucket/prefix" the store writes to; it serves as the
// DynamoDB partition key.
func NewDDBCommitStore(inner blobstore.Store, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		inner:     inner,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Put implements blobstore.Store. Writing CurrentKey commits a new
// version through DynamoDB instead of S3.
func (s *DDBCommitStore) Put(ctx context.Context, name string, r io.Reader) error {
	if name == CurrentKey {
		manifestName, err := io.ReadAll(r)
		if err != nil {
			return err
		}

		return s.commitVersion(ctx, string(manifestName))
	}

	return s.inner.Put(ctx, name, r)
}

// Open implements blobstore.Store. Opening CurrentKey reads the latest
// committed pointer from DynamoDB.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if name == CurrentKey {
		version, manifestName, err := s.latestVersion(ctx)
		if err != nil {
			return nil, err
		}

		if version == 0 {
			return nil, blobstore.ErrNotFound
		}

		return io.NopCloser(bytes.NewReader([]byte(manifestName))), nil
	}

	return s.inner.Open(ctx, name)
}

// Stat implements blobstore.Store.
func (s *DDBCommitStore) Stat(ctx context.Context, name string) (blobstore.Info, error) {
	if name == CurrentKey {
		version, manifestName, err := s.latestVersion(ctx)
		if err != nil {
			return blobstore.Info{}, err
		}

		if version == 0 {
			return blobstore.Info{}, blobstore.ErrNotFound
		}

		return blobstore.Info{Name: name, Size: int64(len(manifestName))}, nil
	}

	return s.inner.Stat(ctx, name)
}

// Delete implements blobstore.Store. The commit log itself is never
// deleted; dropping CurrentKey is a no-op.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if name == CurrentKey {
		return nil
	}

	return s.inner.Delete(ctx, name)
}

// List implements blobstore.Store.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// latestVersion queries DynamoDB for the newest committed version.
func (s *DDBCommitStore) latestVersion(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query commit log: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]

	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in commit log")
	}

	manifestAttr, ok := item["manifest"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid manifest attribute in commit log")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	return version, manifestAttr.Value, nil
}

// commitVersion appends a new version with a conditional put. The
// condition fails when another writer took the same version number
// first.
func (s *DDBCommitStore) commitVersion(ctx context.Context, manifestName string) error {
	currentVersion, _, err := s.latestVersion(ctx)
	if err != nil {
		return err
	}

	newVersion := currentVersion + 1

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newVersion)},
			"manifest": &types.AttributeValueMemberS{Value: manifestName},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}

		return fmt.Errorf("failed to commit version: %w", err)
	}

	return nil
}
