package store

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	getOut  *dynamodb.GetItemOutput
	getErr  error
	putErr  error
	updOut  *dynamodb.UpdateItemOutput
	updErr  error
	delErr  error
	queryOut *dynamodb.QueryOutput
	queryErr error
	scanOut  *dynamodb.ScanOutput
	scanErr  error

	lastGetIn    *dynamodb.GetItemInput
	lastPutIn    *dynamodb.PutItemInput
	lastUpdateIn *dynamodb.UpdateItemInput
	lastDeleteIn *dynamodb.DeleteItemInput
	lastQueryIn  *dynamodb.QueryInput
	lastScanIn   *dynamodb.ScanInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetIn = in
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, f.getErr
	}
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutIn = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.lastUpdateIn = in
	if f.updOut == nil {
		return &dynamodb.UpdateItemOutput{}, f.updErr
	}
	return f.updOut, f.updErr
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.lastDeleteIn = in
	return &dynamodb.DeleteItemOutput{}, f.delErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQueryIn = in
	if f.queryOut == nil {
		return &dynamodb.QueryOutput{}, f.queryErr
	}
	return f.queryOut, f.queryErr
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.lastScanIn = in
	if f.scanOut == nil {
		return &dynamodb.ScanOutput{}, f.scanErr
	}
	return f.scanOut, f.scanErr
}

func mustNewDynamo(t *testing.T, api *fakeDynamo) *Dynamo {
	t.Helper()
	d, err := NewDynamo(api, Config{TableName: "test-table", IndexName: "gsi1"})
	require.NoError(t, err)
	return d
}

func testItem(pk, sk string) Item {
	return Item{
		AttrPK: &types.AttributeValueMemberS{Value: pk},
		AttrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

func TestNewDynamo_NilAPI(t *testing.T) {
	_, err := NewDynamo(nil, Config{})
	require.Error(t, err)
}

func TestPutIfAbsent_SetsCondition(t *testing.T) {
	api := &fakeDynamo{}
	d := mustNewDynamo(t, api)

	err := d.PutIfAbsent(context.Background(), testItem("USER#u1", "PROFILE"))
	require.NoError(t, err)
	require.NotNil(t, api.lastPutIn)
	require.Equal(t, "test-table", *api.lastPutIn.TableName)
	require.Equal(t, "attribute_not_exists(pk) AND attribute_not_exists(sk)", *api.lastPutIn.ConditionExpression)
}

func TestPutIfAbsent_Conflict(t *testing.T) {
	api := &fakeDynamo{putErr: &types.ConditionalCheckFailedException{}}
	d := mustNewDynamo(t, api)

	err := d.PutIfAbsent(context.Background(), testItem("USER#u1", "PROFILE"))
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestPut_NoCondition(t *testing.T) {
	api := &fakeDynamo{}
	d := mustNewDynamo(t, api)

	err := d.Put(context.Background(), testItem("CONV#c1", "TICKET#t1"))
	require.NoError(t, err)
	require.Nil(t, api.lastPutIn.ConditionExpression)
}

func TestGet_HappyPath(t *testing.T) {
	api := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: testItem("USER#u1", "PROFILE")}}
	d := mustNewDynamo(t, api)

	item, err := d.Get(context.Background(), "USER#u1", "PROFILE")
	require.NoError(t, err)
	require.Equal(t, "USER#u1", item[AttrPK].(*types.AttributeValueMemberS).Value)

	key := api.lastGetIn.Key
	require.Equal(t, "USER#u1", key[AttrPK].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "PROFILE", key[AttrSK].(*types.AttributeValueMemberS).Value)
}

func TestGet_NotFound(t *testing.T) {
	api := &fakeDynamo{getOut: &dynamodb.GetItemOutput{}}
	d := mustNewDynamo(t, api)

	_, err := d.Get(context.Background(), "USER#u1", "PROFILE")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGet_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	api := &fakeDynamo{getErr: boom}
	d := mustNewDynamo(t, api)

	_, err := d.Get(context.Background(), "USER#u1", "PROFILE")
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestQueryPrefix_LimitAndOrder(t *testing.T) {
	api := &fakeDynamo{queryOut: &dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{testItem("CONV#c1", "MSG#0000000000003#m3")},
	}}
	d := mustNewDynamo(t, api)

	items, err := d.QueryPrefix(context.Background(), PrefixQuery{
		PartitionKey:  "CONV#c1",
		SortKeyPrefix: "MSG#",
		Descending:    true,
		Limit:         1,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)

	in := api.lastQueryIn
	require.Equal(t, "pk = :pk AND begins_with(sk, :prefix)", *in.KeyConditionExpression)
	require.Equal(t, int32(1), *in.Limit)
	require.False(t, *in.ScanIndexForward)
	require.Nil(t, in.FilterExpression)
}

func TestQueryPrefix_Filters(t *testing.T) {
	api := &fakeDynamo{}
	d := mustNewDynamo(t, api)

	_, err := d.QueryPrefix(context.Background(), PrefixQuery{
		PartitionKey:  "USER#u1",
		SortKeyPrefix: "CONV#",
		Filters: []Filter{
			{Attr: "type", Value: &types.AttributeValueMemberS{Value: "conversation"}},
			{Attr: "archived", Value: &types.AttributeValueMemberBOOL{Value: true}},
		},
	})
	require.NoError(t, err)

	in := api.lastQueryIn
	require.Equal(t, "#f0 = :f0 AND #f1 = :f1", *in.FilterExpression)
	require.Equal(t, "type", in.ExpressionAttributeNames["#f0"])
	require.Equal(t, "archived", in.ExpressionAttributeNames["#f1"])
	require.True(t, *in.ScanIndexForward)
}

func TestQueryIndex_UsesGSI(t *testing.T) {
	api := &fakeDynamo{queryOut: &dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{testItem("USER#u1", "CONV#0000000000001#c1")},
	}}
	d := mustNewDynamo(t, api)

	items, err := d.QueryIndex(context.Background(), "SHARE#tok")
	require.NoError(t, err)
	require.Len(t, items, 1)

	in := api.lastQueryIn
	require.Equal(t, "gsi1", *in.IndexName)
	require.Equal(t, "gsi1pk = :pk", *in.KeyConditionExpression)
}

func TestUpdate_BuildsSetAndRemove(t *testing.T) {
	api := &fakeDynamo{updOut: &dynamodb.UpdateItemOutput{Attributes: testItem("USER#u1", "CONV#0000000000001#c1")}}
	d := mustNewDynamo(t, api)

	item, err := d.Update(context.Background(), "USER#u1", "CONV#0000000000001#c1", Mutation{
		Set:    map[string]types.AttributeValue{"title": &types.AttributeValueMemberS{Value: "Renamed"}},
		Remove: []string{"shareId", "gsi1pk", "gsi1sk"},
	})
	require.NoError(t, err)
	require.NotNil(t, item)

	in := api.lastUpdateIn
	require.Equal(t, "attribute_exists(pk) AND attribute_exists(sk)", *in.ConditionExpression)
	require.Equal(t, types.ReturnValueAllNew, in.ReturnValues)
	require.Contains(t, *in.UpdateExpression, "SET ")
	require.Contains(t, *in.UpdateExpression, "REMOVE ")
	require.Equal(t, "title", in.ExpressionAttributeNames["#s0"])
	require.Equal(t, "shareId", in.ExpressionAttributeNames["#r0"])
}

func TestUpdate_MissingItem(t *testing.T) {
	api := &fakeDynamo{updErr: &types.ConditionalCheckFailedException{}}
	d := mustNewDynamo(t, api)

	_, err := d.Update(context.Background(), "USER#u1", "PROFILE", Mutation{
		Set: map[string]types.AttributeValue{"email": &types.AttributeValueMemberS{Value: "b@x.com"}},
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_PassesKey(t *testing.T) {
	api := &fakeDynamo{}
	d := mustNewDynamo(t, api)

	err := d.Delete(context.Background(), "CONV#c1", "TICKET#t1")
	require.NoError(t, err)

	key := api.lastDeleteIn.Key
	require.Equal(t, "CONV#c1", key[AttrPK].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "TICKET#t1", key[AttrSK].(*types.AttributeValueMemberS).Value)
}

func TestCountPrefix_UsesSelectCount(t *testing.T) {
	api := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Count: 5}}
	d := mustNewDynamo(t, api)

	count, err := d.CountPrefix(context.Background(), "CONV#c1", "MSG#", nil)
	require.NoError(t, err)
	require.Equal(t, 5, count)
	require.Equal(t, types.SelectCount, api.lastQueryIn.Select)
}

func TestScan_Filters(t *testing.T) {
	api := &fakeDynamo{scanOut: &dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{testItem("CONV#c1", "TICKET#t1")},
	}}
	d := mustNewDynamo(t, api)

	items, err := d.Scan(context.Background(), []Filter{
		{Attr: "status", Value: &types.AttributeValueMemberS{Value: "pending"}},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "#f0 = :f0", *api.lastScanIn.FilterExpression)
	require.Equal(t, "status", api.lastScanIn.ExpressionAttributeNames["#f0"])
}
