package sqlinline

const QUpsertGoogleUser = `--sql 8a5490dc-b770-4d63-847e-d98f5c45bcc5
insert into users (id, google_sub, email, name, avatar_url, locale, role, plan, max_downloads, downloads_today, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::text, $5::text, 'user', 'free', 2, 0, now(), now())
on conflict (email) do update set
    name = excluded.name,
    avatar_url = case when users.avatar_url = '' then excluded.avatar_url else users.avatar_url end,
    locale = excluded.locale,
    google_sub = excluded.google_sub,
    updated_at = now()
returning id, email, name, avatar_url, locale, role, plan, max_downloads, downloads_today, coalesce(last_download_date::text, ''), welcome_seen;
`

const QInsertEmailUser = `--sql d2e4229d-8d9b-44ea-894e-97e83b79e9d3
insert into users (id, email, name, password_hash, locale, role, plan, max_downloads, downloads_today, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::text, 'user', 'free', 2, 0, now(), now())
on conflict (email) do nothing
returning id;
`

const QSelectUserByID = `--sql efe348ce-ae6f-4376-bb85-d9eb1552f219
select id, email, name, avatar_url, locale, role, plan, max_downloads, downloads_today, coalesce(last_download_date::text, ''), welcome_seen, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QSelectUserByEmail = `--sql d4cd59b6-6503-49e8-bc72-53ff8bb56a0f
select id, email, name, coalesce(password_hash, ''), avatar_url, locale, role, plan, max_downloads, downloads_today, coalesce(last_download_date::text, ''), welcome_seen
from users
where lower(email) = lower($1::text)
limit 1;
`

const QUpdateProfile = `--sql 5a3314e2-4df7-4fd0-b75e-4e4b8ade6720
update users set
    name = coalesce(nullif($2::text, ''), name),
    locale = coalesce(nullif($3::text, ''), locale),
    welcome_seen = coalesce($4::boolean, welcome_seen),
    updated_at = now()
where id = $1::uuid
returning id, email, name, avatar_url, locale, role, plan, max_downloads, downloads_today, coalesce(last_download_date::text, ''), welcome_seen;
`

const QUpdateAvatarURL = `--sql d1cf77d5-00b8-441a-a20f-4e494500e171
update users set avatar_url = $2::text, updated_at = now()
where id = $1::uuid
returning avatar_url;
`

const QSelectEntitlement = `--sql 385dfdeb-8181-4ace-8624-3f01e7447ad9
select id, plan, max_downloads, downloads_today, coalesce(last_download_date::text, '')
from users
where id = $1::uuid
limit 1;
`

const QUpdateEntitlement = `--sql c6e2842e-3cc5-4e36-82e2-28093995fc56
update users set
    downloads_today = $2::int,
    last_download_date = nullif($3::text, '')::date,
    updated_at = now()
where id = $1::uuid;
`

const QSetUserPlan = `--sql dc9c0c82-7712-458e-bbec-de08e096b50f
update users set
    plan = $2::text,
    max_downloads = $3::int,
    downloads_today = case when $4::boolean then 0 else downloads_today end,
    updated_at = now()
where id = $1::uuid
returning id, email, plan, max_downloads, downloads_today;
`

const QListUsers = `--sql 56fe145e-62bd-4687-9a2c-41cc51d0f1c9
select id, email, name, role, plan, max_downloads, downloads_today, created_at
from users
order by created_at desc
limit $1::int offset $2::int;
`
