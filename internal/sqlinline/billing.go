package sqlinline

const QInsertWebhookEvent = `--sql c53b0d7f-dba2-458b-9eee-5067ab0ed449
insert into webhook_events (id, external_id, event_type, customer_id, user_id, payload, status, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, nullif($4::text, '')::uuid, $5::jsonb, 'RECEIVED', now(), now())
on conflict (external_id) do nothing
returning id;
`

const QNextPendingWebhookEvent = `--sql 7b42a649-5e39-465e-8866-56d7546e9726
with next_event as (
    select id
    from webhook_events
    where status = 'RECEIVED'
    order by created_at asc
    for update skip locked
    limit 1
),
claimed as (
    update webhook_events
    set status = 'PROCESSING', updated_at = now()
    where id in (select id from next_event)
    returning id, external_id, event_type, customer_id, coalesce(user_id::text, ''), payload, status, created_at, updated_at
)
select * from claimed;
`

const QMarkWebhookProcessed = `--sql 16189d62-8544-47cb-9edd-24070c5dedae
update webhook_events set status = 'PROCESSED', error = null, updated_at = now()
where id = $1::uuid;
`

const QMarkWebhookFailed = `--sql fb4ba99c-c18d-4796-902a-ee72b750c03f
update webhook_events set status = 'FAILED', error = $2::text, updated_at = now()
where id = $1::uuid;
`

const QUpsertSubscription = `--sql 324adcb4-94c1-4ec9-9a69-118fe3e4d4b4
insert into subscriptions (id, user_id, customer_id, subscription_id, status, current_period_end, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::text, $4::text, $5::timestamptz, now(), now())
on conflict (user_id) do update set
    customer_id = excluded.customer_id,
    subscription_id = excluded.subscription_id,
    status = excluded.status,
    current_period_end = excluded.current_period_end,
    updated_at = now();
`

const QSelectSubscriptionByUser = `--sql 9f6b7c5d-55c3-4f67-a6a4-4a2de6f6f4f4
select customer_id, subscription_id, status, to_char(current_period_end, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
from subscriptions
where user_id = $1::uuid
limit 1;
`

const QSelectUserIDByCustomer = `--sql 280b8c0e-ca75-4f88-8be8-f6e1a9d7a281
select user_id::text
from subscriptions
where customer_id = $1::text
limit 1;
`

const QInsertDownloadEvent = `--sql 40518c78-1a67-4045-a8a5-d35b4c1d88e8
insert into download_events (id, user_id, template_id, created_at)
values (gen_random_uuid(), $1::uuid, $2::uuid, now());
`
