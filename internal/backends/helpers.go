package backends

import (
	"conncheck/internal/backends/ddb"
	"conncheck/internal/backends/firestore"
	"conncheck/internal/backends/supabase"
	"conncheck/internal/ports"
	"conncheck/internal/pub"
	"conncheck/internal/types"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	redisbackend "conncheck/internal/backends/redis"
)

// AWSSettings point the AWS clients at a local mock when an endpoint is set. The static
// credentials are only used together with an endpoint.
type AWSSettings struct {
	DDBEndpoint string `envconfig:"DDB_ENDPOINT"`
	DDBTable    string `envconfig:"DDB_TABLE" default:"conncheck"`
	SNSEndpoint string `envconfig:"SNS_ENDPOINT"`
	Region      string `envconfig:"AWS_REGION" default:"us-east-1"`
	AccessKey   string `envconfig:"AWS_ACCESS_KEY_ID" default:"x"`
	SecretKey   string `envconfig:"AWS_SECRET_ACCESS_KEY" default:"x"`
}

type RedisSettings struct {
	Host string `envconfig:"REDIS_HOST" default:"localhost"`
	Port string `envconfig:"REDIS_PORT" default:"6379"`
	User string `envconfig:"REDIS_USER"`
	Pass string `envconfig:"REDIS_PASS"`
	TLS  bool   `envconfig:"REDIS_SSL" default:"false"`
	DB   int    `envconfig:"REDIS_DB_NUM" default:"0"`
}

const AmazonRootCA1PEM = `-----BEGIN CERTIFICATE-----
MIIDQTCCAimgAwIBAgITBmyfz5m/jAo54vB4ikPmljZbyjANBgkqhkiG9w0BAQsF
ADA5MQswCQYDVQQGEwJVUzEPMA0GA1UEChMGQW1hem9uMRkwFwYDVQQDExBBbWF6
b24gUm9vdCBDQSAxMB4XDTE1MDUyNjAwMDAwMFoXDTM4MDExNzAwMDAwMFowOTEL
MAkGA1UEBhMCVVMxDzANBgNVBAoTBkFtYXpvbjEZMBcGA1UEAxMQQW1hem9uIFJv
b3QgQ0EgMTCCASIwDQYJKoZIhvcNAQEBBQADggEPADCCAQoCggEBALJ4gHHKeNXj
ca9HgFB0fW7Y14h29Jlo91ghYPl0hAEvrAIthtOgQ3pOsqTQNroBvo3bSMgHFzZM
9O6II8c+6zf1tRn4SWiw3te5djgdYZ6k/oI2peVKVuRF4fn9tBb6dNqcmzU5L/qw
IFAGbHrQgLKm+a/sRxmPUDgH3KKHOVj4utWp+UhnMJbulHheb4mjUcAwhmahRWa6
VOujw5H5SNz/0egwLX0tdHA114gk957EWW67c4cX8jJGKLhD+rcdqsq08p8kDi1L
93FcXmn/6pUCyziKrlA4b9v7LWIbxcceVOF34GfID5yHI9Y/QCB/IIDEgEw+OyQm
jgSubJrIqg0CAwEAAaNCMEAwDwYDVR0TAQH/BAUwAwEB/zAOBgNVHQ8BAf8EBAMC
AYYwHQYDVR0OBBYEFIQYzIU07LwMlJQuCFmcx7IQTgoIMA0GCSqGSIb3DQEBCwUA
A4IBAQCY8jdaQZChGsV2USggNiMOruYou6r4lK5IpDB/G/wkjUu0yKGX9rbxenDI
U5PMCCjjmCXPI6T53iHTfIUJrU6adTrCC2qJeHZERxhlbI1Bjjt/msv0tadQ1wUs
N+gDS63pYaACbvXy8MWy7Vu33PqUXHeeE6V/Uq2V8viTO96LXFvKWlJbYK8U90vv
o/ufQJVtMVT8QtPHRh8jrdkPSHCa2XV4cdFyQzR1bldZwgJcJmApzyMZFo6IQ6XU
5MsI+yMRQ+hDKXJioaldXgjUkK642M4UwtBV8ob2xJNDd2ZhwLnoQdeXeGADbkpy
rqXRfboQnoZsG4q5WTP468SQvvG5
-----END CERTIFICATE-----`

// FirebaseDocumentStore builds the Firestore client for the service account. It is meant
// to run once, inside a flow.ClientCache.
func FirebaseDocumentStore(ctx context.Context, cfg types.FirebaseConfig) (*firestore.DocumentStore, error) {
	cli, err := firestore.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return firestore.NewDocumentStore(cli), nil
}

// SupabaseRecordStore builds the Supabase client from the project URL and key.
func SupabaseRecordStore(cfg types.SupabaseConfig) (*supabase.RecordStore, error) {
	cli, err := supabase.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return supabase.NewRecordStore(cli), nil
}

// DDBRecordStoreFromEnv constructs the DynamoDB record store. The physical table comes
// from DDB_TABLE and is created if missing.
func DDBRecordStoreFromEnv(ctx context.Context) (ports.RecordStore, error) {
	var s AWSSettings
	if err := envconfig.Process("", &s); err != nil {
		return nil, err
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	cli := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if s.DDBEndpoint != "" {
			o.BaseEndpoint = aws.String(s.DDBEndpoint)
			o.Region = s.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, "")
		}
	})
	return ddb.NewRecordStore(ctx, s.DDBTable, cli)
}

// RedisRecordStoreFromEnv constructs the Redis record store. The server is pinged once.
func RedisRecordStoreFromEnv(ctx context.Context) (ports.RecordStore, error) {
	var s RedisSettings
	if err := envconfig.Process("", &s); err != nil {
		return nil, err
	}
	cli, err := NewRedisClient(ctx, s)
	if err != nil {
		return nil, err
	}
	return redisbackend.NewRecordStore(cli), nil
}

// SNSPublisherFromEnv builds the SNS publisher for write events. SNS_ENDPOINT points it
// at a local mock with static test credentials.
func SNSPublisherFromEnv(ctx context.Context) (ports.Publisher, error) {
	var s AWSSettings
	if err := envconfig.Process("", &s); err != nil {
		return nil, err
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	cli := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if s.SNSEndpoint != "" {
			o.BaseEndpoint = aws.String(s.SNSEndpoint)
			if o.Region == "" {
				o.Region = s.Region
			}
			o.Credentials = credentials.NewStaticCredentialsProvider("test", "test", "")
		}
	})
	return pub.NewSNS(cli), nil
}

// NewRedisClient connects and pings. With TLS on, the server must present a chain
// rooted at Amazon Root CA 1 (ElastiCache).
func NewRedisClient(ctx context.Context, s RedisSettings) (*redis.Client, error) {
	var tlsConfig *tls.Config
	if s.TLS {
		roots := x509.NewCertPool()
		if !roots.AppendCertsFromPEM([]byte(AmazonRootCA1PEM)) {
			return nil, fmt.Errorf("failed to load Amazon root CA")
		}
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12, RootCAs: roots}
	}
	addr := net.JoinHostPort(s.Host, s.Port)
	cli := redis.NewClient(&redis.Options{
		Addr:      addr,
		Username:  s.User,
		Password:  s.Pass,
		DB:        s.DB,
		TLSConfig: tlsConfig,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	log.WithFields(log.Fields{"addr": addr, "db": s.DB, "tls": s.TLS}).Debug("Connected to Redis")
	return cli, nil
}
